package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lexpraxis/LexPraxis/app/models"
	"gorm.io/gorm"
)

// Lifecycle synchronization derives pipeline-stage moves from the terminal
// status on a mirrored entity. The two machines (sales, finance) are
// independent and never block each other; a case can be "won" in sales and in
// "collections" in finance at the same time. Handlers run best-effort after
// the mirror upsert: a failure here is logged and does not fail the event.

// subscriptionTargetFlag maps a subscription status to the sales stage flag to
// move linked deals to. Transient provider statuses map to "" (no side effect).
func subscriptionTargetFlag(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.BillingStatusActive:
		return models.StageFlagWon
	case models.BillingStatusCanceled, models.BillingStatusPastDue, models.BillingStatusUnpaid:
		return models.StageFlagLost
	default:
		return ""
	}
}

func (s *Service) syncSubscriptionLifecycle(raw json.RawMessage) error {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}

	flag := subscriptionTargetFlag(p.Status)
	if flag == "" {
		return nil
	}

	stage, err := s.repo.FindStageByFlag(models.PipelineKindSales, flag)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("billing: sales pipeline has no stage flagged %q", flag)
		}
		return err
	}

	moved, err := s.repo.MoveDealsBySubscriptionRef(p.ID, stage.ID)
	if err != nil {
		return err
	}
	if moved > 0 {
		log.Printf("billing: moved %d deal(s) for subscription %s to sales stage %q", moved, p.ID, stage.Name)
	}
	return nil
}

// paymentOutcomePayload covers both payment-intent and invoice payment
// events; only the fields the payment lifecycle needs.
type paymentOutcomePayload struct {
	ID         string `json:"id"`
	Customer   string `json:"customer"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Metadata   struct {
		NumeroCNJ string `json:"numero_cnj"`
	} `json:"metadata"`
}

func (s *Service) syncPaymentLifecycle(raw json.RawMessage, succeeded bool) error {
	var p paymentOutcomePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errMissingProviderID
	}

	now := s.now()
	if p.Customer != "" {
		amount := p.Amount
		if p.AmountPaid > 0 {
			amount = p.AmountPaid
		}
		var err error
		if succeeded {
			err = s.repo.RecordCustomerPaymentSuccess(p.Customer, now, amount, p.Status)
		} else {
			err = s.repo.RecordCustomerPaymentFailure(p.Customer, now, p.Status)
		}
		if err != nil {
			return err
		}
	}

	caseNumber := strings.TrimSpace(p.Metadata.NumeroCNJ)
	if caseNumber == "" {
		return nil
	}

	flag := models.StageFlagPaid
	if !succeeded {
		flag = models.StageFlagCollections
	}
	stage, err := s.repo.FindStageByFlag(models.PipelineKindFinance, flag)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("billing: finance pipeline has no stage flagged %q", flag)
		}
		return err
	}

	moved, err := s.repo.MoveCaseByCaseNumber(caseNumber, stage.ID)
	if err != nil {
		return err
	}
	if moved {
		log.Printf("billing: moved case %s to finance stage %q", caseNumber, stage.Name)
	}
	return nil
}
