package model

// Student is the signed-in student's profile as returned by the login endpoint.
type Student struct {
	ID      int    `json:"id"`
	NISN    string `json:"nisn"`
	Name    string `json:"name"`
	ClassID int    `json:"class_id"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	NISN     string `json:"nisn" validate:"required,min=4,max=20"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}
