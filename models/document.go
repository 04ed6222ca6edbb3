package models

// DocumentInfo is one entry of the document array returned by the list
// operation and carried in invite notifications.
type DocumentInfo struct {
	Name     string `json:"name"`
	Creator  string `json:"creatorUsername"`
	Sections int    `json:"numberOfSections"`
	Shared   bool   `json:"isShared"`
}

// SignUpInput is the request body of the sign-up endpoint.
type SignUpInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
