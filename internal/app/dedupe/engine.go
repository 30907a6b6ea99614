package dedupe

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/app/repositories"
	"github.com/yigit/supervision/internal/pkg/apperrors"
)

// MergeCounts reports what one group merge changed
type MergeCounts struct {
	LinksMoved     int
	RecordsDeleted int
	PaymentsMoved  int
}

// Summary is the outcome of a full merge pass
type Summary struct {
	RunID             string
	GroupsMerged      int
	DuplicatesDeleted int
	LinksMoved        int
	PaymentsMoved     int
}

// Engine merges duplicate subjects and supervisors
type Engine struct {
	tx     repositories.Transactor
	logger zerolog.Logger
}

// NewEngine creates a merge engine that opens one transaction per run on tx
func NewEngine(tx repositories.Transactor, lgr zerolog.Logger) *Engine {
	return &Engine{tx: tx, logger: lgr}
}

// MergeSubjectGroup collapses group into its survivor using store. group must
// be ordered by ascending id and is treated as a snapshot: nothing is re-read
// from storage while duplicates are being removed.
func (e *Engine) MergeSubjectGroup(ctx context.Context, store repositories.IStore, group []*models.Subject) (*models.Subject, MergeCounts, error) {
	var counts MergeCounts
	if len(group) == 0 {
		return nil, counts, fmt.Errorf("%w: empty subject group", apperrors.ErrBadRequest)
	}

	survivor := SelectSurvivor(group)
	for _, dup := range group {
		if dup.ID == survivor.ID {
			continue
		}

		links, err := store.Supervisions().GetBySubject(ctx, dup.ID)
		if err != nil {
			return nil, counts, err
		}
		for _, link := range links {
			_, created, err := store.Supervisions().GetOrCreate(ctx, survivor.ID, link.SupervisorID, link.Role)
			if err != nil {
				return nil, counts, err
			}
			if created {
				counts.LinksMoved++
			}
		}

		moved, err := rehomePayments(ctx, store, dup.ID, survivor.ID)
		if err != nil {
			return nil, counts, err
		}
		counts.PaymentsMoved += moved

		if _, err := store.Supervisions().DeleteBySubject(ctx, dup.ID); err != nil {
			return nil, counts, err
		}
		if err := store.Subjects().Delete(ctx, dup.ID); err != nil {
			return nil, counts, fmt.Errorf("error deleting duplicate subject %d: %w", dup.ID, err)
		}
		counts.RecordsDeleted++

		e.logger.Debug().
			Int64("survivor_id", survivor.ID).
			Int64("duplicate_id", dup.ID).
			Msg("Merged duplicate subject")
	}

	return survivor, counts, nil
}

// rehomePayments moves the duplicate's fee payments for years the survivor has no record of
func rehomePayments(ctx context.Context, store repositories.IStore, fromID, toID int64) (int, error) {
	payments, err := store.FeePayments().GetBySubject(ctx, fromID)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, payment := range payments {
		_, err := store.FeePayments().Get(ctx, toID, payment.Year)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrFeePaymentNotFound) {
			return moved, err
		}
		if err := store.FeePayments().Reassign(ctx, payment.ID, toID); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// MergeSupervisorGroup collapses group into its survivor using store. group
// must be ordered by ascending id.
func (e *Engine) MergeSupervisorGroup(ctx context.Context, store repositories.IStore, group []*models.Supervisor) (*models.Supervisor, MergeCounts, error) {
	var counts MergeCounts
	if len(group) == 0 {
		return nil, counts, fmt.Errorf("%w: empty supervisor group", apperrors.ErrBadRequest)
	}

	survivor := SelectSurvivor(group)
	for _, dup := range group {
		if dup.ID == survivor.ID {
			continue
		}

		if !survivor.HasDepartment() && dup.HasDepartment() {
			if err := store.Supervisors().SetDepartment(ctx, survivor.ID, dup.DepartmentID); err != nil {
				return nil, counts, err
			}
			survivor.DepartmentID = dup.DepartmentID
		}

		links, err := store.Supervisions().GetBySupervisor(ctx, dup.ID)
		if err != nil {
			return nil, counts, err
		}
		for _, link := range links {
			_, created, err := store.Supervisions().GetOrCreate(ctx, link.SubjectID, survivor.ID, link.Role)
			if err != nil {
				return nil, counts, err
			}
			if created {
				counts.LinksMoved++
			}
		}

		// The supervisor FK restricts deletes, so links go first.
		if _, err := store.Supervisions().DeleteBySupervisor(ctx, dup.ID); err != nil {
			return nil, counts, err
		}
		if err := store.Supervisors().Delete(ctx, dup.ID); err != nil {
			return nil, counts, fmt.Errorf("error deleting duplicate supervisor %d: %w", dup.ID, err)
		}
		counts.RecordsDeleted++

		e.logger.Debug().
			Int64("survivor_id", survivor.ID).
			Int64("duplicate_id", dup.ID).
			Msg("Merged duplicate supervisor")
	}

	return survivor, counts, nil
}

// DedupeSubjects merges every group of stored subjects sharing a normalized key.
// The pass is a single transaction: any failure leaves storage untouched.
func (e *Engine) DedupeSubjects(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := e.logger.With().Str("run_id", summary.RunID).Str("entity", "subject").Logger()

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		subjects, err := store.Subjects().GetAll(ctx)
		if err != nil {
			return err
		}

		groups := GroupBy(subjects, SubjectKey)
		for _, group := range groups.Duplicated() {
			_, counts, err := e.MergeSubjectGroup(ctx, store, group)
			if err != nil {
				return err
			}
			summary.record(counts)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Subject merge pass rolled back")
		return nil, fmt.Errorf("error merging subjects: %w", err)
	}

	log.Info().
		Int("groups", summary.GroupsMerged).
		Int("deleted", summary.DuplicatesDeleted).
		Int("links_moved", summary.LinksMoved).
		Msg("Subject merge pass completed")
	return summary, nil
}

// DedupeSupervisors merges every group of stored supervisors sharing a normalized name.
// The pass is a single transaction: any failure leaves storage untouched.
func (e *Engine) DedupeSupervisors(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := e.logger.With().Str("run_id", summary.RunID).Str("entity", "supervisor").Logger()

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context, store repositories.IStore) error {
		supervisors, err := store.Supervisors().GetAll(ctx)
		if err != nil {
			return err
		}

		groups := GroupBy(supervisors, SupervisorKey)
		for _, group := range groups.Duplicated() {
			_, counts, err := e.MergeSupervisorGroup(ctx, store, group)
			if err != nil {
				return err
			}
			summary.record(counts)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Supervisor merge pass rolled back")
		return nil, fmt.Errorf("error merging supervisors: %w", err)
	}

	log.Info().
		Int("groups", summary.GroupsMerged).
		Int("deleted", summary.DuplicatesDeleted).
		Int("links_moved", summary.LinksMoved).
		Msg("Supervisor merge pass completed")
	return summary, nil
}

func (s *Summary) record(counts MergeCounts) {
	s.GroupsMerged++
	s.DuplicatesDeleted += counts.RecordsDeleted
	s.LinksMoved += counts.LinksMoved
	s.PaymentsMoved += counts.PaymentsMoved
}
