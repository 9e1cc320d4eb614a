package ownership

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/suilfg/staking-engine/ledger"
	"github.com/suilfg/staking-engine/models"
)

// Outcome classifies where a staked object currently sits relative to the
// wallet that staked it.
type Outcome string

const (
	// Owned: the expected wallet holds the object directly.
	Owned Outcome = "owned"
	// ListedElsewhere: the object sits with a known marketplace address.
	ListedElsewhere Outcome = "listed_elsewhere"
	// Transferred: the object sits with some other address or container.
	Transferred Outcome = "transferred"
	// HeldInOwnedContainer: the object sits in a kiosk the expected wallet
	// holds the owner capability for. Result.Listed tells whether the kiosk
	// carries a listing for it.
	HeldInOwnedContainer Outcome = "held_in_owned_container"
	// Unknown: the ledger could not be queried. The stake is deferred to
	// the next cycle, never forfeited on an Unknown.
	Unknown Outcome = "unknown"
)

type Result struct {
	Outcome Outcome
	Listed  bool
	Detail  string
}

// ContinueAccruing reports whether the stake keeps earning points.
func (r Result) ContinueAccruing() bool {
	if r.Outcome == Owned {
		return true
	}
	return r.Outcome == HeldInOwnedContainer && !r.Listed
}

// Forfeit reports whether the stake must be forfeited and with what reason.
func (r Result) Forfeit() (models.ForfeitureReason, bool) {
	switch r.Outcome {
	case ListedElsewhere:
		return models.ForfeitureListed, true
	case HeldInOwnedContainer:
		if r.Listed {
			return models.ForfeitureListed, true
		}
	case Transferred:
		return models.ForfeitureTransferred, true
	}
	return "", false
}

// LedgerClient is the read-only ledger surface the verifier needs.
type LedgerClient interface {
	ObjectOwner(ctx context.Context, objectID string) (*ledger.Owner, error)
	OwnedKioskIDs(ctx context.Context, wallet string) ([]string, error)
	IsItemListedInKiosk(ctx context.Context, kioskID, objectID string) (bool, error)
}

type Verifier struct {
	client       LedgerClient
	marketplaces map[string]struct{}
	logger       *logrus.Entry
}

func NewVerifier(client LedgerClient, marketplaceAddresses []string, logger *logrus.Entry) *Verifier {
	marketplaces := make(map[string]struct{}, len(marketplaceAddresses))
	for _, a := range marketplaceAddresses {
		marketplaces[a] = struct{}{}
	}
	return &Verifier{
		client:       client,
		marketplaces: marketplaces,
		logger:       logger,
	}
}

// Verify resolves the object's current owner and classifies it against the
// expected wallet. Any ledger failure yields Unknown.
func (v *Verifier) Verify(ctx context.Context, objectID, expectedWallet string) Result {
	owner, err := v.client.ObjectOwner(ctx, objectID)
	if err != nil {
		v.logger.WithFields(logrus.Fields{
			"object": objectID,
		}).Warn("object owner lookup failed: ", err)
		return Result{Outcome: Unknown, Detail: err.Error()}
	}
	if owner == nil {
		return Result{Outcome: Transferred, Detail: "no owner record"}
	}

	if owner.AddressOwner != "" {
		current := owner.AddressOwner
		if current == expectedWallet {
			return Result{Outcome: Owned}
		}
		if _, ok := v.marketplaces[current]; ok {
			return Result{Outcome: ListedElsewhere, Detail: "held by marketplace address"}
		}
		return Result{Outcome: Transferred, Detail: "held by another wallet"}
	}

	if owner.ObjectOwner != "" {
		return v.classifyContainer(ctx, objectID, expectedWallet, owner.ObjectOwner)
	}

	return Result{Outcome: Transferred, Detail: "unrecognized owner type"}
}

func (v *Verifier) classifyContainer(ctx context.Context, objectID, expectedWallet, kioskID string) Result {
	if _, ok := v.marketplaces[kioskID]; ok {
		return Result{Outcome: ListedElsewhere, Detail: "held by marketplace container"}
	}

	kioskIDs, err := v.client.OwnedKioskIDs(ctx, expectedWallet)
	if err != nil {
		v.logger.WithFields(logrus.Fields{
			"object": objectID,
			"kiosk":  kioskID,
		}).Warn("kiosk capability lookup failed: ", err)
		return Result{Outcome: Unknown, Detail: err.Error()}
	}

	ownsKiosk := false
	for _, id := range kioskIDs {
		if id == kioskID {
			ownsKiosk = true
			break
		}
	}
	if !ownsKiosk {
		return Result{Outcome: Transferred, Detail: "held by another container"}
	}

	listed, err := v.client.IsItemListedInKiosk(ctx, kioskID, objectID)
	if err != nil {
		v.logger.WithFields(logrus.Fields{
			"object": objectID,
			"kiosk":  kioskID,
		}).Warn("kiosk listing scan failed: ", err)
		return Result{Outcome: Unknown, Detail: err.Error()}
	}
	return Result{Outcome: HeldInOwnedContainer, Listed: listed}
}
