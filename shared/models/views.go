package models

// UserView is what callers see of a user. It never exposes PasswordHash.
// ListingCount is only filled in when a user is fetched by id.
type UserView struct {
	ID           string          `json:"id"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Email        string          `json:"email"`
	Favorites    []ApartmentView `json:"favorites"`
	ListingCount *int64          `json:"listingCount,omitempty"`
}

// ApartmentView is an apartment with its owner reference resolved.
// AddedBy is nil when the owner no longer exists or was never recorded.
type ApartmentView struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Rooms       int       `json:"rooms"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
	Lng         float64   `json:"lng"`
	Lat         float64   `json:"lat"`
	Geometry    Point     `json:"geometry"`
	AddedBy     *UserView `json:"addedBy"`
}

// NewUserView projects a user without resolving the owners of its favorites.
func NewUserView(u *User) *UserView {
	view := &UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Favorites: make([]ApartmentView, 0, len(u.Favorites)),
	}
	for i := range u.Favorites {
		view.Favorites = append(view.Favorites, *NewApartmentView(&u.Favorites[i], nil))
	}
	return view
}

// NewOwnerView projects the user nested under an apartment's addedBy field.
// Favorites are left empty there to keep the nesting one level deep.
func NewOwnerView(u *User) *UserView {
	return &UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Favorites: []ApartmentView{},
	}
}

func NewApartmentView(a *Apartment, owner *UserView) *ApartmentView {
	return &ApartmentView{
		ID:          a.ID,
		Description: a.Description,
		Rooms:       a.Rooms,
		Country:     a.Country,
		City:        a.City,
		Lng:         a.Geometry.Lng(),
		Lat:         a.Geometry.Lat(),
		Geometry:    a.Geometry,
		AddedBy:     owner,
	}
}

// OwnerIDs collects the distinct non-empty addedBy ids of the given apartments.
func OwnerIDs(apartments []Apartment) []string {
	seen := make(map[string]struct{}, len(apartments))
	ids := make([]string, 0, len(apartments))
	for _, a := range apartments {
		if a.AddedBy == "" {
			continue
		}
		if _, ok := seen[a.AddedBy]; ok {
			continue
		}
		seen[a.AddedBy] = struct{}{}
		ids = append(ids, a.AddedBy)
	}
	return ids
}

// AuthPayload is returned by signup and login.
type AuthPayload struct {
	User *UserView `json:"user"`
	JWT  string    `json:"jwt"`
}

// ResolveOwner looks up an apartment's owner in owners.
func ResolveOwner(a *Apartment, owners map[string]*User) *UserView {
	if a.AddedBy == "" {
		return nil
	}
	if u, ok := owners[a.AddedBy]; ok {
		return NewOwnerView(u)
	}
	return nil
}

// NewApartmentViews projects apartments, resolving each owner from owners.
func NewApartmentViews(apartments []Apartment, owners map[string]*User) []ApartmentView {
	views := make([]ApartmentView, 0, len(apartments))
	for i := range apartments {
		views = append(views, *NewApartmentView(&apartments[i], ResolveOwner(&apartments[i], owners)))
	}
	return views
}

// NewResolvedUserView projects u with the owners of its favorites resolved.
func NewResolvedUserView(u *User, owners map[string]*User) *UserView {
	view := NewUserView(u)
	view.Favorites = NewApartmentViews(u.Favorites, owners)
	return view
}
