package team

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spikeup/spikeup-api/internal/common"
	"github.com/spikeup/spikeup-api/internal/user"
)

// TeamRepository defines the interface for team data operations.
type TeamRepository interface {
	// Team operations
	CreateTeam(team *Team, captainMember *TeamMember) error
	GetTeamByID(id uint) (*Team, error)
	GetTeamByName(name string) (*Team, error)
	GetAllTeams(page, limit int, filters map[string]interface{}) ([]Team, int64, error)
	UpdateTeam(team *Team) error
	WithdrawTeam(teamID uint) error
	TransferCaptain(teamID, newCaptainUserID uint) error
	SetTeamStats(teamID uint, wins, losses, points, totalGames int) error
	DeleteTeamAdmin(teamID uint) error

	// Roster operations
	AddRosterMember(member *TeamMember) error
	GetRoster(teamID uint) ([]TeamMember, error)
	GetMemberByUserID(teamID, userID uint) (*TeamMember, error)
	RemoveRosterMember(teamID, memberID uint) error

	// JoinRequest operations
	CreateJoinRequest(request *JoinRequest) error
	GetJoinRequestByID(id uint) (*JoinRequest, error)
	GetJoinRequestsByTeamID(teamID uint, page, limit int) ([]JoinRequest, int64, error)
	ApproveJoinRequest(requestID uint) (*JoinRequest, error)
	RejectJoinRequest(requestID uint) (*JoinRequest, error)

	IsUserCaptain(teamID, userID uint) (bool, error)
	GetCaptainUserID(teamID uint) (uint, error)
	WithTransaction(txFunc func(TeamRepository) error) error
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new instance of TeamRepository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) WithTransaction(txFunc func(TeamRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return txFunc(&teamRepository{db: tx})
	})
}

// --- Team Operations ---

// CreateTeam creates the team, its captain's roster entry, and the captain's
// team back-reference in one transaction.
func (r *teamRepository) CreateTeam(team *Team, captainMember *TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}

		captainMember.TeamID = team.ID
		if err := tx.Create(captainMember).Error; err != nil {
			return err
		}

		res := tx.Model(&user.User{}).
			Where("id = ? AND team_id IS NULL", team.CaptainID).
			Update("team_id", team.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user already belongs to a team", common.ErrConflict)
		}
		return nil
	})
}

func (r *teamRepository) GetTeamByID(id uint) (*Team, error) {
	var team Team
	if err := r.db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetTeamByName(name string) (*Team, error) {
	var team Team
	if err := r.db.Where("name = ? AND is_deleted = ?", name, false).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetAllTeams(page, limit int, filters map[string]interface{}) ([]Team, int64, error) {
	var teams []Team
	var total int64

	query := r.db.Model(&Team{}).Where("is_deleted = ?", false)

	if region, ok := filters["region"]; ok {
		query = query.Where("region = ?", region)
	}
	if division, ok := filters["gender_division"]; ok {
		query = query.Where("gender_division = ?", division)
	}
	if name, ok := filters["name"]; ok {
		query = query.Where("name LIKE ?", "%"+name.(string)+"%")
	}

	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&teams).Error; err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

func (r *teamRepository) UpdateTeam(team *Team) error {
	return r.db.Save(team).Error
}

// WithdrawTeam soft-deletes the team and cascades: every linked member's
// user.team_id is cleared in the same transaction, roster and join requests
// are removed. Match ledger history is untouched.
func (r *teamRepository) WithdrawTeam(teamID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var team Team
		if err := tx.First(&team, teamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: team %d", common.ErrNotFound, teamID)
			}
			return err
		}

		if err := tx.Model(&user.User{}).Where("team_id = ?", teamID).Update("team_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("team_id = ?", teamID).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("team_id = ?", teamID).Delete(&JoinRequest{}).Error; err != nil {
			return err
		}
		return tx.Model(&Team{}).Where("id = ?", teamID).Update("is_deleted", true).Error
	})
}

// TransferCaptain reassigns the captaincy to another linked roster member.
func (r *teamRepository) TransferCaptain(teamID, newCaptainUserID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var member TeamMember
		err := tx.Where("team_id = ? AND user_id = ?", teamID, newCaptainUserID).First(&member).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: new captain is not a linked roster member", common.ErrValidation)
			}
			return err
		}

		res := tx.Model(&Team{}).Where("id = ? AND is_deleted = ?", teamID, false).
			Update("captain_id", newCaptainUserID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: team %d", common.ErrNotFound, teamID)
		}
		return nil
	})
}

// SetTeamStats is the admin escape hatch: an absolute overwrite of the stat
// fields, independent of any match.
func (r *teamRepository) SetTeamStats(teamID uint, wins, losses, points, totalGames int) error {
	if wins < 0 || losses < 0 || points < 0 || totalGames < 0 {
		return fmt.Errorf("%w: stats must be non-negative", common.ErrValidation)
	}
	res := r.db.Model(&Team{}).Where("id = ?", teamID).Updates(map[string]interface{}{
		"wins":        wins,
		"losses":      losses,
		"points":      points,
		"total_games": totalGames,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: team %d", common.ErrNotFound, teamID)
	}
	return nil
}

// DeleteTeamAdmin hard-deletes a team and its dependents.
func (r *teamRepository) DeleteTeamAdmin(teamID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user.User{}).Where("team_id = ?", teamID).Update("team_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("team_id = ?", teamID).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("team_id = ?", teamID).Delete(&JoinRequest{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&Team{}, teamID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: team %d", common.ErrNotFound, teamID)
		}
		return nil
	})
}

// --- Roster Operations ---

func (r *teamRepository) AddRosterMember(member *TeamMember) error {
	if member.UserID == nil {
		return r.db.Create(member).Error
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		res := tx.Model(&user.User{}).
			Where("id = ? AND team_id IS NULL", *member.UserID).
			Update("team_id", member.TeamID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user already belongs to a team", common.ErrConflict)
		}
		return nil
	})
}

func (r *teamRepository) GetRoster(teamID uint) ([]TeamMember, error) {
	var members []TeamMember
	if err := r.db.Where("team_id = ?", teamID).Order("created_at asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *teamRepository) GetMemberByUserID(teamID, userID uint) (*TeamMember, error) {
	var member TeamMember
	if err := r.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// RemoveRosterMember removes a roster entry; the member's user back-reference
// is cleared in the same transaction so no orphaned team_id survives.
func (r *teamRepository) RemoveRosterMember(teamID, memberID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var member TeamMember
		err := tx.Where("id = ? AND team_id = ?", memberID, teamID).First(&member).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: roster member %d", common.ErrNotFound, memberID)
			}
			return err
		}

		if err := tx.Unscoped().Delete(&member).Error; err != nil {
			return err
		}
		if member.UserID != nil {
			if err := tx.Model(&user.User{}).
				Where("id = ? AND team_id = ?", *member.UserID, teamID).
				Update("team_id", nil).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// --- JoinRequest Operations ---

// CreateJoinRequest is idempotent: a duplicate request from the same user for
// the same team is a no-op.
func (r *teamRepository) CreateJoinRequest(request *JoinRequest) error {
	request.Status = JoinRequestPending
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(request).Error
}

func (r *teamRepository) GetJoinRequestByID(id uint) (*JoinRequest, error) {
	var request JoinRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *teamRepository) GetJoinRequestsByTeamID(teamID uint, page, limit int) ([]JoinRequest, int64, error) {
	var requests []JoinRequest
	var total int64
	query := r.db.Model(&JoinRequest{}).Where("team_id = ? AND status = ?", teamID, JoinRequestPending)
	query.Count(&total)
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at asc").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ApproveJoinRequest admits the applicant: roster entry created and the
// user's team back-reference set, all in one transaction. The pending-status
// guard makes a double approval race resolve to a single admission.
func (r *teamRepository) ApproveJoinRequest(requestID uint) (*JoinRequest, error) {
	var request JoinRequest
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: join request %d", common.ErrNotFound, requestID)
			}
			return err
		}

		res := tx.Model(&JoinRequest{}).
			Where("id = ? AND status = ?", requestID, JoinRequestPending).
			Update("status", JoinRequestAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: join request already decided", common.ErrConflict)
		}

		var applicant user.User
		if err := tx.First(&applicant, request.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", common.ErrNotFound, request.UserID)
			}
			return err
		}

		member := TeamMember{
			TeamID:   request.TeamID,
			UserID:   &request.UserID,
			Name:     applicant.Name,
			Position: request.Position,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		userRes := tx.Model(&user.User{}).
			Where("id = ? AND team_id IS NULL", request.UserID).
			Update("team_id", request.TeamID)
		if userRes.Error != nil {
			return userRes.Error
		}
		if userRes.RowsAffected == 0 {
			return fmt.Errorf("%w: user already belongs to a team", common.ErrConflict)
		}

		// Decided requests are dropped from the queue so the applicant can
		// re-apply elsewhere (or here again, after leaving).
		return tx.Unscoped().Delete(&JoinRequest{}, requestID).Error
	})
	if err != nil {
		return nil, err
	}
	request.Status = JoinRequestAccepted
	return &request, nil
}

func (r *teamRepository) RejectJoinRequest(requestID uint) (*JoinRequest, error) {
	var request JoinRequest
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: join request %d", common.ErrNotFound, requestID)
			}
			return err
		}
		if request.Status != JoinRequestPending {
			return fmt.Errorf("%w: join request already decided", common.ErrConflict)
		}
		return tx.Unscoped().Delete(&JoinRequest{}, requestID).Error
	})
	if err != nil {
		return nil, err
	}
	request.Status = JoinRequestRejected
	return &request, nil
}

// --- Lookups ---

func (r *teamRepository) IsUserCaptain(teamID, userID uint) (bool, error) {
	var team Team
	if err := r.db.Select("captain_id").First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return team.CaptainID == userID, nil
}

func (r *teamRepository) GetCaptainUserID(teamID uint) (uint, error) {
	var team Team
	if err := r.db.Select("captain_id").First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: team %d", common.ErrNotFound, teamID)
		}
		return 0, err
	}
	return team.CaptainID, nil
}
