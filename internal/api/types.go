package api

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	UserID      string `json:"user_id"`
}

// Profile is the account record returned by GET /api/auth/profile/{userId}.
// The backend serializes the identifier as "_id".
type Profile struct {
	ID        string `json:"_id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
}

// MessageResponse is the generic {"message": ...} success payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// EmailRequest is the body of the forget and send-otp endpoints.
type EmailRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest is the body of POST /api/auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// UpdateProfileRequest is the body of PUT /api/auth/profile/{userId}.
// Empty name/email fields are omitted so the backend leaves them unchanged.
type UpdateProfileRequest struct {
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
	Email     string `json:"email,omitempty"`
	OTP       string `json:"otp"`
}

// ModelDirRequest is the body of POST /api/tts/createNewModelDir.
type ModelDirRequest struct {
	Name string `json:"name"`
}

// ProcessDatasetResponse is returned by POST /api/tts/process-dataset.
type ProcessDatasetResponse struct {
	Message         string  `json:"message"`
	ModelDir        string  `json:"model_dir"`
	DatasetDir      string  `json:"dataset_dir"`
	TrainCSV        string  `json:"train_csv"`
	EvalCSV         string  `json:"eval_csv"`
	DurationMinutes float64 `json:"duration_minutes"`
	ChunksCount     int     `json:"chunks_count"`
}

// TrainStartRequest is the body of POST /api/train/start.
type TrainStartRequest struct {
	Dataset string `json:"dataset"`
	Epochs  int    `json:"epochs"`
}

// TrainStartResponse reports whether the backend accepted the training run.
type TrainStartResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoadModelRequest is the body of POST /api/tts/load-model.
type LoadModelRequest struct {
	Model string `json:"model"`
}

// SynthesizeRequest is the body of POST /api/tts/synthesize.
type SynthesizeRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}
