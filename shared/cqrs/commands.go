package cqrs

// Commands carry the raw Authorization header where the operation needs a
// signed-in caller; the owning service verifies it.

type RegisterUserCommand struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type AddFavoriteCommand struct {
	Authorization string
	ApartmentID   string
}

type AddApartmentCommand struct {
	Authorization string
	Description   string
	// Rooms is nil when the caller left it out.
	Rooms   *int
	Country string
	City    string
	// Lng and Lat are nil when the caller left them out.
	Lng *float64
	Lat *float64
}
