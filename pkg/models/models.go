package models

// Domain models matching the database schema in db/migrations/0001_init.sql

// Status describes the lifecycle of a project application.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// ServiceType is the category of work a client can request.
type ServiceType string

const (
	ServiceVideoEditing    ServiceType = "Video Editing"
	ServicePosterDesign    ServiceType = "Poster Design"
	ServiceWebsiteCreation ServiceType = "Website Creation"
	ServiceAppDevelopment  ServiceType = "App Development"
)

// ValidServiceType reports whether s is one of the offered services.
func ValidServiceType(s ServiceType) bool {
	switch s {
	case ServiceVideoEditing, ServicePosterDesign, ServiceWebsiteCreation, ServiceAppDevelopment:
		return true
	}
	return false
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Verified     bool   `json:"verified" db:"verified"`
	IsAdmin      bool   `json:"is_admin" db:"is_admin"`
	Created      int64  `json:"created_at" db:"created"`
}

// OTP is a short-lived email-ownership challenge. At most one row per email
// is meaningful; creating a new one supersedes all prior rows for that email.
type OTP struct {
	ID      int64  `json:"id" db:"id"`
	Email   string `json:"email" db:"email"`
	Code    string `json:"-" db:"code"`
	Created int64  `json:"created_at" db:"created"`
}

type Application struct {
	ID                 int64       `json:"id" db:"id"`
	ClientName         string      `json:"client_name" db:"client_name"`
	City               string      `json:"city" db:"city"`
	ServiceType        ServiceType `json:"service_type" db:"service_type"`
	ProjectDescription string      `json:"project_description" db:"project_description"`
	ReferenceImages    string      `json:"reference_images,omitempty" db:"reference_images"`
	Days               int         `json:"days" db:"days"`
	UserEmail          string      `json:"user_email" db:"user_email"`
	Status             Status      `json:"status" db:"status"`
	Created            int64       `json:"created_at" db:"created"`

	// Delivery fields, populated only when the project is delivered.
	// Each one is independently optional.
	DeliveryFileURL     string `json:"delivery_file_url,omitempty" db:"delivery_file_url"`
	DeliveryAPKURL      string `json:"delivery_apk_url,omitempty" db:"delivery_apk_url"`
	DeliveryGithubURL   string `json:"delivery_github_url,omitempty" db:"delivery_github_url"`
	DeliveryDeployedURL string `json:"delivery_deployed_url,omitempty" db:"delivery_deployed_url"`
	DeliveryNotes       string `json:"delivery_notes,omitempty" db:"delivery_notes"`
	DeliveredAt         *int64 `json:"delivered_at,omitempty" db:"delivered_at"`
}

// Delivery carries the per-field payload of a delivery. Blank fields are
// normalized by the lifecycle authority before the row is written.
type Delivery struct {
	FileURL     string `json:"delivery_file_url"`
	APKURL      string `json:"delivery_apk_url"`
	GithubURL   string `json:"delivery_github_url"`
	DeployedURL string `json:"delivery_deployed_url"`
	Notes       string `json:"delivery_notes"`
}

// UploadedFile is a binary deliverable kept in the database. The numeric ID
// is the only stable external handle; rows are never updated or deleted.
type UploadedFile struct {
	ID               int64  `json:"id" db:"id"`
	Filename         string `json:"filename" db:"filename"`
	OriginalFilename string `json:"original_filename" db:"original_filename"`
	FileType         string `json:"file_type" db:"file_type"`
	MimeType         string `json:"mime_type" db:"mime_type"`
	Data             []byte `json:"-" db:"file_data"`
	Size             int64  `json:"size" db:"file_size"`
	UploadedBy       string `json:"uploaded_by" db:"uploaded_by"`
	Created          int64  `json:"created_at" db:"created"`
}
