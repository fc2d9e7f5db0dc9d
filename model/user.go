package model

// UserAttribute names a user property addressable from clause and rollout
// configuration. Built-in attribute names are fixed by the wire format;
// any other name resolves against the user's custom attribute map.
type UserAttribute string

// Built-in user attributes.
const (
	UserAttrKey       UserAttribute = "key"
	UserAttrSecondary UserAttribute = "secondary"
	UserAttrIP        UserAttribute = "ip"
	UserAttrEmail     UserAttribute = "email"
	UserAttrName      UserAttribute = "name"
	UserAttrAvatar    UserAttribute = "avatar"
	UserAttrFirstName UserAttribute = "firstName"
	UserAttrLastName  UserAttribute = "lastName"
	UserAttrCountry   UserAttribute = "country"
	UserAttrAnonymous UserAttribute = "anonymous"
)

// User contains the attributes of the end user a flag is being evaluated
// for. Key is the primary identity; the optional built-ins use pointers so
// an unset attribute is distinguishable from an empty one (clauses never
// match an unset attribute). Custom holds arbitrary JSON-typed values.
type User struct {
	Key       string         `json:"key"`
	Secondary *string        `json:"secondary,omitempty"`
	IP        *string        `json:"ip,omitempty"`
	Email     *string        `json:"email,omitempty"`
	Name      *string        `json:"name,omitempty"`
	Avatar    *string        `json:"avatar,omitempty"`
	FirstName *string        `json:"firstName,omitempty"`
	LastName  *string        `json:"lastName,omitempty"`
	Country   *string        `json:"country,omitempty"`
	Anonymous *bool          `json:"anonymous,omitempty"`
	Custom    map[string]any `json:"custom,omitempty"`
}

// NewUser returns a user with only a key set.
func NewUser(key string) *User {
	return &User{Key: key}
}

// GetAttribute resolves an attribute value on the user. The second return
// is false when the attribute is not present; built-in string attributes
// are present only when non-nil.
func (u *User) GetAttribute(attr UserAttribute) (any, bool) {
	switch attr {
	case UserAttrKey:
		return u.Key, true
	case UserAttrSecondary:
		return optString(u.Secondary)
	case UserAttrIP:
		return optString(u.IP)
	case UserAttrEmail:
		return optString(u.Email)
	case UserAttrName:
		return optString(u.Name)
	case UserAttrAvatar:
		return optString(u.Avatar)
	case UserAttrFirstName:
		return optString(u.FirstName)
	case UserAttrLastName:
		return optString(u.LastName)
	case UserAttrCountry:
		return optString(u.Country)
	case UserAttrAnonymous:
		if u.Anonymous == nil {
			return nil, false
		}
		return *u.Anonymous, true
	}
	if u.Custom == nil {
		return nil, false
	}
	v, ok := u.Custom[string(attr)]
	return v, ok
}

func optString(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}
