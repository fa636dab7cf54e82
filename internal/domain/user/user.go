package user

import "time"

type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// DefaultSubscription is assigned at registration.
const DefaultSubscription = SubscriptionStarter

func (s Subscription) IsValid() bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"` // never expose hash in JSON
	AvatarURL    string       `json:"avatarURL"`
	Subscription Subscription `json:"subscription"`
	// Tokens is the active-token set consumed by logout only; generic token
	// validation never reads it.
	Tokens    []string  `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
