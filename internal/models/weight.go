package models

import "time"

// Weight is a single measurement owned by a user. WeightID is only unique
// among the records of the same UserID.
type Weight struct {
	ID        int64     `json:"-"`
	WeightID  int64     `json:"weightId"`
	Weight    float64   `json:"weight"`
	UserID    int64     `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}
