package domain

type ID int64

// Balances are the lending aggregates maintained by the lending subsystem.
type Balances struct {
	TotalLent       int64
	TotalBorrowed   int64
	CurrentLent     int64
	CurrentBorrowed int64
}

type User struct {
	ID           ID
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Balances
}

type NewUser struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
}

// Credentials is the minimal projection login needs.
type Credentials struct {
	ID           ID
	Username     string
	PasswordHash string
}
