package validation

// Admin payload schemas. Bounds follow the account rules: names 3..50,
// alphanumeric usernames 3..30, passwords 3..100, status limited to
// active/inactive, avatar must be a URL or rooted path.

type adminCreate struct {
	FirstName string  `json:"first_name" validate:"required,min=3,max=50"`
	LastName  string  `json:"last_name" validate:"required,min=3,max=50"`
	Email     string  `json:"email" validate:"required,email"`
	Username  string  `json:"username" validate:"required,alphanum,min=3,max=30"`
	Password  string  `json:"password" validate:"required,min=3,max=100"`
	Avatar    *string `json:"avatar" validate:"omitempty,uri"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// adminUpdate makes every field optional: absent fields are left untouched.
type adminUpdate struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=3,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,min=3,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Username  *string `json:"username" validate:"omitempty,alphanum,min=3,max=30"`
	Avatar    *string `json:"avatar" validate:"omitempty,uri"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type adminUpdatePassword struct {
	Password string `json:"password" validate:"required,min=3,max=100"`
}

type adminUpdateAvatar struct {
	Avatar string `json:"avatar" validate:"required,uri"`
}

type adminListing struct {
	Search     *string           `json:"search"`
	Filters    map[string]string `json:"filters" validate:"omitempty,dive,keys,oneof=first_name last_name email username slug status,endkeys"`
	PageNumber *int              `json:"page_number" validate:"omitempty,gte=1"`
	PageSize   *int              `json:"page_size" validate:"omitempty,gte=1"`
}
