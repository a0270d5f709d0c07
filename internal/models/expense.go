package models

import "time"

// Expense represents a financial expense record owned by a single user.
type Expense struct {
	ID       string    `json:"_id" bson:"_id"`
	Title    string    `json:"title" bson:"title"`
	Amount   float64   `json:"amount" bson:"amount"`
	Category string    `json:"category" bson:"category"`
	Date     time.Time `json:"date" bson:"date"`
	UserID   string    `json:"userId" bson:"userId"`
}

// Savings represents a savings goal owned by a single user.
type Savings struct {
	ID            string    `json:"_id" bson:"_id"`
	UserID        string    `json:"userId" bson:"userId"`
	Category      string    `json:"category" bson:"category"`
	Name          string    `json:"name" bson:"name"`
	TargetAmount  float64   `json:"targetAmount" bson:"targetAmount"`
	CurrentAmount float64   `json:"currentAmount" bson:"currentAmount"`
	StartDate     time.Time `json:"startDate" bson:"startDate"`
	EndDate       time.Time `json:"endDate" bson:"endDate"`
}

// User represents a user account.
type User struct {
	ID            string    `json:"_id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	PasswordHash  string    `json:"-" bson:"password"`
	UserName      string    `json:"userName" bson:"userName"`
	MonthlyBudget float64   `json:"monthlyBudget" bson:"monthlyBudget"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// ProfileUpdate carries the user fields a profile update may change.
// Nil fields are left untouched.
type ProfileUpdate struct {
	UserName      *string
	MonthlyBudget *float64
}
