package domain

// TokenKind separates refresh from access tokens so one can never stand in for the other.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims is the identity a validated token carries.
type Claims struct {
	UserID   int64
	Username string
}
