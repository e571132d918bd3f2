package match

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spikeup/spikeup-api/internal/common"
	"github.com/spikeup/spikeup-api/internal/team"
)

// Points awarded when a match is reconciled into the team ledgers.
const (
	WinnerPoints = 3
	LoserPoints  = 1
	DrawPoints   = 1
)

// MatchRepository defines methods to interact with match data. All
// state-transition methods implement the guarded-transaction pattern: the
// transition is a conditioned UPDATE on the expected status, and zero
// affected rows means another caller got there first (common.ErrConflict).
type MatchRepository interface {
	CreateMatch(match *Match) error
	GetMatchByID(id uint) (*Match, error)
	GetMatches(filters map[string]interface{}, page, pageSize int) ([]Match, int64, error)
	GetTeamMatches(teamID uint, status string, page, pageSize int) ([]Match, int64, error)
	DeleteMatch(id uint) error

	// Recruiting
	Apply(matchID, teamID uint) error
	CancelApplication(matchID, teamID uint) error
	ListApplicants(matchID uint) ([]MatchApplicant, error)
	AcceptApplicant(matchID, chosenTeamID uint) (*Match, []uint, error)

	// Result reconciliation
	SubmitResult(matchID, submitterTeamID uint, submitterScore, opponentScore int) (*Match, error)
	ApproveResult(matchID, approverTeamID uint) (*Match, error)
	DisputeResult(matchID, teamID uint) (*Match, error)

	// Admin override
	ForceFinalize(matchID uint, hostScore, guestScore int) (*Match, error)
}

// GormMatchRepository implements MatchRepository using GORM.
type GormMatchRepository struct {
	db *gorm.DB
}

// NewGormMatchRepository creates a new GormMatchRepository.
func NewGormMatchRepository(db *gorm.DB) *GormMatchRepository {
	return &GormMatchRepository{db: db}
}

// CreateMatch inserts a new match in recruiting state with no applicants and
// no result.
func (r *GormMatchRepository) CreateMatch(match *Match) error {
	match.Status = StatusRecruiting
	match.GuestTeamID = nil
	match.HostScore = nil
	match.GuestScore = nil
	match.ResultStatus = nil
	match.SubmittedByTeamID = nil
	match.SubmittedAt = nil
	match.FinishedAt = nil
	return r.db.Create(match).Error
}

// GetMatchByID retrieves a match by ID.
func (r *GormMatchRepository) GetMatchByID(id uint) (*Match, error) {
	var match Match
	if err := r.db.First(&match, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

// GetMatches retrieves matches based on filters with pagination.
func (r *GormMatchRepository) GetMatches(filters map[string]interface{}, page, pageSize int) ([]Match, int64, error) {
	var matches []Match
	var total int64

	query := r.db.Model(&Match{})
	for key, value := range filters {
		query = query.Where(key, value)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("game_time asc").Offset(offset).Limit(pageSize).Find(&matches).Error; err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

// GetTeamMatches retrieves matches a team hosts or plays in.
func (r *GormMatchRepository) GetTeamMatches(teamID uint, status string, page, pageSize int) ([]Match, int64, error) {
	query := r.db.Model(&Match{}).Where("host_team_id = ? OR guest_team_id = ?", teamID, teamID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var matches []Match
	offset := (page - 1) * pageSize
	if err := query.Order("game_time desc").Offset(offset).Limit(pageSize).Find(&matches).Error; err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

// DeleteMatch hard-deletes the match and its applicant rows. No stat rollback
// happens even for finished matches: deletion after finalization is an
// explicit, irreversible action and does not undo ledger effects.
func (r *GormMatchRepository) DeleteMatch(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", id).Delete(&MatchApplicant{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&Match{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: match %d", common.ErrNotFound, id)
		}
		return nil
	})
}

// --- Recruiting ---

// Apply appends the team to the applicant set. Duplicate applications are a
// no-op (unique index + ON CONFLICT DO NOTHING).
func (r *GormMatchRepository) Apply(matchID, teamID uint) error {
	var match Match
	if err := r.db.First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: match %d", common.ErrNotFound, matchID)
		}
		return err
	}
	if match.Status != StatusRecruiting {
		return fmt.Errorf("%w: match is no longer recruiting", common.ErrConflict)
	}
	if match.HostTeamID == teamID {
		return fmt.Errorf("%w: a team cannot apply to its own match", common.ErrValidation)
	}

	applicant := MatchApplicant{MatchID: matchID, TeamID: teamID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&applicant).Error
}

// CancelApplication removes the team from the applicant set; no-op if absent.
func (r *GormMatchRepository) CancelApplication(matchID, teamID uint) error {
	return r.db.Where("match_id = ? AND team_id = ?", matchID, teamID).Delete(&MatchApplicant{}).Error
}

// ListApplicants returns the current applicant set, oldest first.
func (r *GormMatchRepository) ListApplicants(matchID uint) ([]MatchApplicant, error) {
	var applicants []MatchApplicant
	if err := r.db.Where("match_id = ?", matchID).Order("created_at asc").Find(&applicants).Error; err != nil {
		return nil, err
	}
	return applicants, nil
}

// AcceptApplicant fixes the guest team and clears the applicant set. The
// status transition is conditioned on the match still being in recruiting, so
// two hosts racing to accept different applicants resolve to exactly one
// winner; the loser observes ErrConflict. Returns the updated match and the
// team ids of passed-over applicants, collected before the set is cleared.
func (r *GormMatchRepository) AcceptApplicant(matchID, chosenTeamID uint) (*Match, []uint, error) {
	var match Match
	var passedOver []uint

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match %d", common.ErrNotFound, matchID)
			}
			return err
		}
		if match.Status != StatusRecruiting {
			return fmt.Errorf("%w: an applicant was already accepted", common.ErrConflict)
		}

		var chosen MatchApplicant
		err := tx.Where("match_id = ? AND team_id = ?", matchID, chosenTeamID).First(&chosen).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: team %d has not applied to this match", common.ErrNotFound, chosenTeamID)
			}
			return err
		}

		if err := tx.Model(&MatchApplicant{}).
			Where("match_id = ? AND team_id <> ?", matchID, chosenTeamID).
			Pluck("team_id", &passedOver).Error; err != nil {
			return err
		}

		res := tx.Model(&Match{}).
			Where("id = ? AND status = ?", matchID, StatusRecruiting).
			Updates(map[string]interface{}{
				"guest_team_id": chosenTeamID,
				"status":        StatusMatched,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: an applicant was already accepted", common.ErrConflict)
		}

		if err := tx.Where("match_id = ?", matchID).Delete(&MatchApplicant{}).Error; err != nil {
			return err
		}

		return tx.First(&match, matchID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &match, passedOver, nil
}

// --- Result reconciliation ---

// SubmitResult records a claimed score. Only the winning side may submit:
// the loser cannot unilaterally claim a loss for the winner, so the actual
// winner must initiate. The submission does not change match.Status; it
// parks the result in waiting for the counterparty to approve or dispute.
func (r *GormMatchRepository) SubmitResult(matchID, submitterTeamID uint, submitterScore, opponentScore int) (*Match, error) {
	if submitterScore < 0 || opponentScore < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", common.ErrValidation)
	}
	if submitterScore <= opponentScore {
		return nil, fmt.Errorf("%w: only the winning team may submit the result", common.ErrValidation)
	}

	var match Match
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match %d", common.ErrNotFound, matchID)
			}
			return err
		}
		if match.GuestTeamID == nil {
			return fmt.Errorf("%w: match has no opponent yet", common.ErrValidation)
		}
		if submitterTeamID != match.HostTeamID && submitterTeamID != *match.GuestTeamID {
			return fmt.Errorf("%w: team is not part of this match", common.ErrPermissionDenied)
		}
		if match.Status == StatusFinished {
			return fmt.Errorf("%w: match is already finished", common.ErrConflict)
		}
		if match.ResultStatus != nil {
			return fmt.Errorf("%w: a result was already submitted", common.ErrConflict)
		}

		hostScore, guestScore := submitterScore, opponentScore
		if submitterTeamID == *match.GuestTeamID {
			hostScore, guestScore = opponentScore, submitterScore
		}

		now := time.Now()
		res := tx.Model(&Match{}).
			Where("id = ? AND status = ? AND result_status IS NULL", matchID, StatusMatched).
			Updates(map[string]interface{}{
				"host_score":           hostScore,
				"guest_score":          guestScore,
				"result_status":        ResultWaiting,
				"submitted_by_team_id": submitterTeamID,
				"submitted_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: a result was already submitted", common.ErrConflict)
		}

		return tx.First(&match, matchID).Error
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ApproveResult is the single point under the two-party path where team stats
// change. The whole effect -- the status transition and both teams' stat
// deltas -- is one transaction, and the transition is conditioned on the
// result still waiting, so a second concurrent approval (or a racing admin
// finalize) observes ErrConflict and applies nothing.
func (r *GormMatchRepository) ApproveResult(matchID, approverTeamID uint) (*Match, error) {
	var match Match
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match %d", common.ErrNotFound, matchID)
			}
			return err
		}
		if match.GuestTeamID == nil || match.ResultStatus == nil {
			return fmt.Errorf("%w: no result has been submitted", common.ErrValidation)
		}
		if approverTeamID != match.HostTeamID && approverTeamID != *match.GuestTeamID {
			return fmt.Errorf("%w: team is not part of this match", common.ErrPermissionDenied)
		}
		if match.SubmittedByTeamID != nil && approverTeamID == *match.SubmittedByTeamID {
			return fmt.Errorf("%w: a team cannot approve its own submission", common.ErrPermissionDenied)
		}
		if match.Status == StatusFinished {
			return fmt.Errorf("%w: match is already finished", common.ErrConflict)
		}
		if *match.ResultStatus != ResultWaiting {
			return fmt.Errorf("%w: result is not awaiting approval", common.ErrConflict)
		}

		now := time.Now()
		res := tx.Model(&Match{}).
			Where("id = ? AND status <> ? AND result_status = ?", matchID, StatusFinished, ResultWaiting).
			Updates(map[string]interface{}{
				"status":        StatusFinished,
				"result_status": ResultVerified,
				"finished_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: match was already finalized", common.ErrConflict)
		}

		if err := applyStatDeltas(tx, match.HostTeamID, *match.GuestTeamID, *match.HostScore, *match.GuestScore); err != nil {
			return err
		}

		return tx.First(&match, matchID).Error
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// DisputeResult flags a waiting result for admin review. No stat changes.
// Disputes have no timeout: they stay open until an admin acts.
func (r *GormMatchRepository) DisputeResult(matchID, teamID uint) (*Match, error) {
	var match Match
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match %d", common.ErrNotFound, matchID)
			}
			return err
		}
		if match.GuestTeamID == nil || match.ResultStatus == nil {
			return fmt.Errorf("%w: no result has been submitted", common.ErrValidation)
		}
		if teamID != match.HostTeamID && teamID != *match.GuestTeamID {
			return fmt.Errorf("%w: team is not part of this match", common.ErrPermissionDenied)
		}
		if *match.ResultStatus != ResultWaiting {
			return fmt.Errorf("%w: result is not awaiting approval", common.ErrConflict)
		}

		res := tx.Model(&Match{}).
			Where("id = ? AND result_status = ?", matchID, ResultWaiting).
			Updates(map[string]interface{}{
				"status":        StatusDispute,
				"result_status": ResultDispute,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: result is not awaiting approval", common.ErrConflict)
		}

		return tx.First(&match, matchID).Error
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// --- Admin override ---

// ForceFinalize applies an admin-decided score, bypassing the two-party
// exchange. It uses the same finality guard as ApproveResult: a match that is
// already finished cannot be finalized again, so an admin retry or double-tap
// cannot double-count the stat deltas.
func (r *GormMatchRepository) ForceFinalize(matchID uint, hostScore, guestScore int) (*Match, error) {
	if hostScore < 0 || guestScore < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", common.ErrValidation)
	}

	var match Match
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match %d", common.ErrNotFound, matchID)
			}
			return err
		}
		if match.GuestTeamID == nil {
			return fmt.Errorf("%w: match has no opponent yet", common.ErrValidation)
		}
		if match.Status == StatusFinished {
			return fmt.Errorf("%w: match is already finished", common.ErrConflict)
		}

		now := time.Now()
		res := tx.Model(&Match{}).
			Where("id = ? AND status <> ?", matchID, StatusFinished).
			Updates(map[string]interface{}{
				"status":        StatusFinished,
				"host_score":    hostScore,
				"guest_score":   guestScore,
				"result_status": ResultVerifiedByAdmin,
				"finished_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: match was already finalized", common.ErrConflict)
		}

		if err := applyStatDeltas(tx, match.HostTeamID, *match.GuestTeamID, hostScore, guestScore); err != nil {
			return err
		}

		return tx.First(&match, matchID).Error
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// applyStatDeltas increments both teams' ledgers for one reconciled match.
// Winner: total+1, wins+1, points+3. Loser: total+1, losses+1, points+1.
// Draw: total+1, points+1 for both (reachable only via admin finalize, since
// submission requires a strict winner). Increments use SQL expressions so the
// deltas compose with whatever the committed state is at transaction time.
func applyStatDeltas(tx *gorm.DB, hostTeamID, guestTeamID uint, hostScore, guestScore int) error {
	switch {
	case hostScore > guestScore:
		if err := incrementStats(tx, hostTeamID, 1, 0, WinnerPoints); err != nil {
			return err
		}
		return incrementStats(tx, guestTeamID, 0, 1, LoserPoints)
	case guestScore > hostScore:
		if err := incrementStats(tx, guestTeamID, 1, 0, WinnerPoints); err != nil {
			return err
		}
		return incrementStats(tx, hostTeamID, 0, 1, LoserPoints)
	default:
		if err := incrementStats(tx, hostTeamID, 0, 0, DrawPoints); err != nil {
			return err
		}
		return incrementStats(tx, guestTeamID, 0, 0, DrawPoints)
	}
}

func incrementStats(tx *gorm.DB, teamID uint, wins, losses, points int) error {
	res := tx.Model(&team.Team{}).Where("id = ?", teamID).Updates(map[string]interface{}{
		"total_games": gorm.Expr("total_games + 1"),
		"wins":        gorm.Expr("wins + ?", wins),
		"losses":      gorm.Expr("losses + ?", losses),
		"points":      gorm.Expr("points + ?", points),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: team %d", common.ErrNotFound, teamID)
	}
	return nil
}
