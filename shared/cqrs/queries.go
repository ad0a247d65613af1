package cqrs

// ---------- Account queries ----------

// LoginQuery authenticates by email and password.
type LoginQuery struct {
	Email    string
	Password string
}

// GetUserQuery fetches a single user by ID. It is public.
type GetUserQuery struct {
	UserID string
}

// ---------- Listing queries ----------

// SearchApartmentsQuery filters listings. Nil fields are not applied.
// MaxDistance is in kilometres from (Lng, Lat), or from the configured
// default origin when both are nil.
type SearchApartmentsQuery struct {
	City        *string
	Country     *string
	Rooms       *int
	Lng         *float64
	Lat         *float64
	MaxDistance *float64
}

type GetApartmentQuery struct {
	ApartmentID string
}
