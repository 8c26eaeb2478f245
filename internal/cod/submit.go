package cod

import (
	"context"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Submission : accusé de réception d'une commande COD.
type Submission struct {
	OrderID  string  `json:"orderId"`
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	Total    float64 `json:"total,omitempty"`
	Quantity int     `json:"quantity"`
}

// Submitter simule l'enregistrement d'une commande : validation, délai puis identifiant.
// Rien n'est persisté.
type Submitter struct {
	delay    time.Duration
	notifier *Notifier
	now      func() time.Time
	rand     func(n int) int
}

func NewSubmitter(delay time.Duration, notifier *Notifier) *Submitter {
	return &Submitter{delay: delay, notifier: notifier, now: time.Now, rand: rand.IntN}
}

func (s *Submitter) Submit(ctx context.Context, form OrderForm) (Submission, error) {
	if err := Validate(form); err != nil {
		return Submission{}, err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Submission{}, ctx.Err()
		case <-timer.C:
		}
	}

	sub := Submission{
		OrderID:  s.newOrderID(),
		Success:  true,
		Message:  "Commande confirmée ! Paiement à la livraison.",
		Quantity: form.Quantity,
	}
	if form.UnitPrice > 0 {
		sub.Total = decimal.NewFromFloat(form.UnitPrice).Mul(decimal.NewFromInt(int64(form.Quantity))).Round(2).InexactFloat64()
	}
	log.Printf("🛒 Commande COD %s enregistrée (%d x %q)", sub.OrderID, form.Quantity, form.ProductTitle)

	if s.notifier != nil && strings.TrimSpace(form.Email) != "" {
		if err := s.notifier.Confirm(ctx, form, sub); err != nil {
			log.Printf("⚠️ E-mail de confirmation non envoyé pour %s: %v", sub.OrderID, err)
		}
	}
	return sub, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// newOrderID : COD-<horodatage ms en base 36>-<5 caractères aléatoires>, en majuscules.
func (s *Submitter) newOrderID() string {
	var suffix [5]byte
	for i := range suffix {
		suffix[i] = base36[s.rand(len(base36))]
	}
	ts := strconv.FormatInt(s.now().UnixMilli(), 36)
	return strings.ToUpper("COD-" + ts + "-" + string(suffix[:]))
}
