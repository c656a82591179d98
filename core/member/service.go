package member

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/donation"
)

// ImageRemover deletes stored member photos.
type ImageRemover interface {
	Remove(ref string) error
}

type Service struct {
	db     core.DB
	images ImageRemover
	logger core.Logger
}

// NewService returns a member Service. images may be nil when photos are not stored.
func NewService(db core.DB, images ImageRemover, logger core.Logger) *Service {
	return &Service{db: db, images: images, logger: logger}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Member, error) {
	roster := make(Roster, 0)
	err := svc.db.View(ctx, []string{core.DocMembers}, func(tx core.DocTx) error {
		return tx.Get(core.DocMembers, &roster)
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading members")
	}
	return roster, nil
}

func (svc *Service) Get(ctx context.Context, rollNo core.RollNo) (Member, error) {
	var mbr Member
	err := svc.db.View(ctx, []string{core.DocMembers}, func(tx core.DocTx) error {
		var roster Roster
		if err := tx.Get(core.DocMembers, &roster); err != nil {
			return err
		}
		i := roster.index(rollNo)
		if i < 0 {
			return errNotFound(rollNo)
		}
		mbr = roster[i]
		return nil
	})
	if err != nil {
		return Member{}, errors.Wrap(err, "getting member")
	}
	return mbr, nil
}

// Upsert creates a member, or fills in a placeholder row holding the same roll number.
// A live member (non-empty name) holding the roll number is a conflict.
func (svc *Service) Upsert(ctx context.Context, nm NewMember) (mbr Member, created bool, err error) {
	var replacedRef string
	err = svc.db.Update(ctx, []string{core.DocMembers}, func(tx core.DocTx) error {
		var roster Roster
		if err := tx.Get(core.DocMembers, &roster); err != nil {
			return err
		}

		mbr = Member{
			RollNo:   nm.RollNo,
			Name:     nm.Name,
			LastName: nm.LastName,
			PhoneNo:  nm.PhoneNo,
			Address:  nm.Address,
			ImageRef: nm.ImageRef,
		}
		if i := roster.index(nm.RollNo); i >= 0 {
			if !roster[i].IsPlaceholder() {
				return core.NewConflictError("a member with roll number %s already exists", nm.RollNo)
			}
			replacedRef = roster[i].ImageRef
			roster[i] = mbr
		} else {
			roster = append(roster, mbr)
			created = true
		}
		return tx.Put(core.DocMembers, roster)
	})
	if err != nil {
		return Member{}, false, errors.Wrap(err, "upserting member")
	}

	if replacedRef != mbr.ImageRef {
		svc.removeImage(replacedRef)
	}
	return mbr, created, nil
}

// Update applies the non-empty fields of um to the member holding rollNo.
func (svc *Service) Update(ctx context.Context, rollNo core.RollNo, um UpdateMember) (Member, error) {
	var (
		mbr    Member
		oldRef string
	)
	err := svc.db.Update(ctx, []string{core.DocMembers}, func(tx core.DocTx) error {
		var roster Roster
		if err := tx.Get(core.DocMembers, &roster); err != nil {
			return err
		}
		i := roster.index(rollNo)
		if i < 0 {
			return errNotFound(rollNo)
		}
		oldRef = roster[i].ImageRef
		um.apply(&roster[i])
		mbr = roster[i]
		return tx.Put(core.DocMembers, roster)
	})
	if err != nil {
		return Member{}, errors.Wrap(err, "updating member")
	}

	if oldRef != mbr.ImageRef {
		svc.removeImage(oldRef)
	}
	return mbr, nil
}

// SoftDelete blanks the member's personal fields, strips every donation ledger entry of the roll number
// and adds the stripped total to the donatedRemoved counter. The three documents are committed together.
func (svc *Service) SoftDelete(ctx context.Context, rollNo core.RollNo) (Member, float64, error) {
	var (
		deleted Member
		removed float64
	)
	docs := []string{core.DocMembers, core.DocDonations, core.DocCounters}
	err := svc.db.Update(ctx, docs, func(tx core.DocTx) error {
		var roster Roster
		if err := tx.Get(core.DocMembers, &roster); err != nil {
			return err
		}
		i := roster.index(rollNo)
		if i < 0 {
			return errNotFound(rollNo)
		}
		deleted = roster[i]
		roster[i].blank()

		ledger := make(donation.Ledger)
		if err := tx.Get(core.DocDonations, &ledger); err != nil {
			return err
		}
		var found bool
		removed, found = ledger.RemoveRollNo(rollNo)

		if err := tx.Put(core.DocMembers, roster); err != nil {
			return err
		}
		if !found {
			return nil
		}

		counters := make(donation.Counters)
		if err := tx.Get(core.DocCounters, &counters); err != nil {
			return err
		}
		counters.Add(donation.CounterDonatedRemoved, removed)
		if err := tx.Put(core.DocDonations, ledger); err != nil {
			return err
		}
		return tx.Put(core.DocCounters, counters)
	})
	if err != nil {
		return Member{}, 0, errors.Wrap(err, "deleting member")
	}

	svc.removeImage(deleted.ImageRef)
	return deleted, removed, nil
}

// removeImage deletes a photo that is no longer referenced. Failures are only logged.
func (svc *Service) removeImage(ref string) {
	if ref == "" || svc.images == nil {
		return
	}
	if err := svc.images.Remove(ref); err != nil && svc.logger != nil {
		svc.logger.Warn("removing member image", err, map[string]interface{}{"image_ref": ref})
	}
}

func errNotFound(rollNo core.RollNo) error {
	return core.NewNotFoundError("member %s not found", rollNo)
}
