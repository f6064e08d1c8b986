package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/thruflo/ttsdash/internal/api"
)

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !readJSON(w, r, &req) {
		return
	}
	key := attemptKey(r, req.Email)
	if !b.allowAttempt(w, r, key) {
		return
	}

	b.mu.Lock()
	u, ok := b.usersByEmail[req.Email]
	var id string
	var hash []byte
	if ok {
		id, hash = u.id, u.passwordHash
	}
	b.mu.Unlock()
	if !ok {
		b.attemptResult(key, false)
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		b.attemptResult(key, false)
		writeDetail(w, http.StatusForbidden, "Invalid credentials")
		return
	}
	b.attemptResult(key, true)

	token := uuid.NewString()
	b.mu.Lock()
	b.tokens[token] = id
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      id,
	})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or missing token")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.blacklist[token] {
		writeMessage(w, "Token already logged out")
		return
	}
	b.blacklist[token] = true
	writeMessage(w, "Logged out successfully")
}

func (b *Backend) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userId"]

	b.mu.Lock()
	u, ok := b.usersByID[id]
	var p api.Profile
	if ok {
		p = u.profile()
	}
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userId"]
	var req api.UpdateProfileRequest
	if !readJSON(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.usersByID[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	rec, ok := b.otps[u.email]
	if !ok {
		writeDetail(w, http.StatusForbidden, "OTP verification required")
		return
	}
	if rec.code != req.OTP {
		writeDetail(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	if b.now().After(rec.expiry) {
		writeDetail(w, http.StatusForbidden, "OTP expired or not verified")
		return
	}
	if req.Firstname == "" && req.Lastname == "" && req.Email == "" {
		writeDetail(w, http.StatusBadRequest, "No fields provided to update")
		return
	}
	delete(b.otps, u.email)

	if req.Firstname != "" {
		u.firstname = req.Firstname
	}
	if req.Lastname != "" {
		u.lastname = req.Lastname
	}
	if req.Email != "" && req.Email != u.email {
		delete(b.usersByEmail, u.email)
		u.email = req.Email
		b.usersByEmail[u.email] = u
	}
	writeMessage(w, "User profile updated successfully")
}

func (b *Backend) handleForget(w http.ResponseWriter, r *http.Request) {
	var req api.EmailRequest
	if !readJSON(w, r, &req) {
		return
	}
	email := api.NormalizeEmail(req.Email)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.usersByEmail[email]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	b.issueOTPLocked(email)
	writeMessage(w, "OTP has been sent to your email")
}

func (b *Backend) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyOTPRequest
	if !readJSON(w, r, &req) {
		return
	}
	key := attemptKey(r, req.Email)
	if !b.allowAttempt(w, r, key) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.otps[req.Email]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if rec.code != req.OTP {
		b.attemptResult(key, false)
		writeDetail(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	b.attemptResult(key, true)
	if b.now().After(rec.expiry) {
		writeDetail(w, http.StatusForbidden, "OTP expired or not verified")
		return
	}
	writeMessage(w, "OTP verified successfully")
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req api.ResetPasswordRequest
	if !readJSON(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.usersByEmail[req.Email]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	rec, ok := b.otps[req.Email]
	if !ok {
		writeDetail(w, http.StatusNotFound, "OTP record not found")
		return
	}
	if rec.code != req.OTP {
		writeDetail(w, http.StatusBadRequest, "Invalid OTP")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	u.passwordHash = hash
	delete(b.otps, req.Email)
	writeMessage(w, "Password has been reset successfully")
}

func (b *Backend) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req api.EmailRequest
	if !readJSON(w, r, &req) {
		return
	}
	email := api.NormalizeEmail(req.Email)
	if email == "" {
		writeDetail(w, http.StatusBadRequest, "Email is required")
		return
	}

	b.mu.Lock()
	b.issueOTPLocked(email)
	b.mu.Unlock()
	writeMessage(w, "OTP sent to "+email)
}

// issueOTPLocked stores a fresh OTP for email. b.mu must be held.
func (b *Backend) issueOTPLocked(email string) {
	b.otps[email] = otpRecord{code: b.generateOTP(), expiry: b.now().Add(OTPTTL)}
}

func (b *Backend) handleCreateModelDir(w http.ResponseWriter, r *http.Request) {
	var req api.ModelDirRequest
	if !readJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeDetail(w, http.StatusBadRequest, "Model name is required.")
		return
	}

	b.mu.Lock()
	b.modelDirs[name] = true
	b.mu.Unlock()
	writeMessage(w, "Folder '"+name+"' is ready.")
}

func (b *Backend) handleProcessDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid multipart body")
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		writeDetail(w, http.StatusBadRequest, "Model name is required.")
		return
	}
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No valid audio files received.")
		return
	}
	file.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.modelDirs[name] {
		writeDetail(w, http.StatusBadRequest, "Audio folder is invalid or doesn't exist.")
		return
	}
	b.processed[name] = append(b.processed[name], header.Filename)

	modelDir := "voice_models/" + name
	writeJSON(w, http.StatusOK, api.ProcessDatasetResponse{
		Message:         "Dataset processed and saved successfully.",
		ModelDir:        modelDir,
		DatasetDir:      modelDir + "/dataset",
		TrainCSV:        modelDir + "/dataset/metadata_train.csv",
		EvalCSV:         modelDir + "/dataset/metadata_eval.csv",
		DurationMinutes: float64(header.Size) / (60 * 2 * 22050),
		ChunksCount:     len(b.processed[name]),
	})
}

func (b *Backend) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	var req api.LoadModelRequest
	if !readJSON(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.models[req.Model] {
		writeDetail(w, http.StatusNotFound, "Unknown model: "+req.Model)
		return
	}
	b.loaded[req.Model] = true
	writeMessage(w, "Model "+req.Model+" loaded")
}

// charDuration is how much speech the fake synthesizer produces per
// character of input.
const charDuration = 50 * time.Millisecond

func (b *Backend) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req api.SynthesizeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeDetail(w, http.StatusBadRequest, "Text is required")
		return
	}

	b.mu.Lock()
	loaded := b.loaded[req.Model]
	b.mu.Unlock()
	if !loaded {
		writeDetail(w, http.StatusBadRequest, "Model not loaded: "+req.Model)
		return
	}

	audio := SilentWAV(time.Duration(len([]rune(req.Text)))*charDuration, 22050)
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (b *Backend) handleTrainStart(w http.ResponseWriter, r *http.Request) {
	var req api.TrainStartRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Dataset) == "" {
		writeDetail(w, http.StatusBadRequest, "Dataset is required")
		return
	}
	if req.Epochs <= 0 {
		writeDetail(w, http.StatusBadRequest, "Epochs must be positive")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.trainFailure != "" {
		writeJSON(w, http.StatusOK, api.TrainStartResponse{Success: false, Message: b.trainFailure})
		return
	}
	b.trainings = append(b.trainings, req)
	writeJSON(w, http.StatusOK, api.TrainStartResponse{Success: true, Message: "Training started"})
}
