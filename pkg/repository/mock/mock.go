package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/creostudios/backend/pkg/models"
	"github.com/creostudios/backend/pkg/repository"
)

// Ensure the mocks implement the public interfaces.
var _ repository.UserRepo = (*UserRepoMock)(nil)
var _ repository.OTPRepo = (*OTPRepoMock)(nil)
var _ repository.ApplicationRepo = (*ApplicationRepoMock)(nil)
var _ repository.FileRepo = (*FileRepoMock)(nil)

// Test helpers and mocks
type Mocks struct {
	Users *UserRepoMock
	OTPs  *OTPRepoMock
	Apps  *ApplicationRepoMock
	Files *FileRepoMock
}

func NewMocks() *Mocks {
	return &Mocks{
		Users: &UserRepoMock{ByEmail: map[string]*models.User{}},
		OTPs:  &OTPRepoMock{ByEmail: map[string]*models.OTP{}},
		Apps:  &ApplicationRepoMock{},
		Files: &FileRepoMock{},
	}
}

type UserRepoMock struct {
	ByEmail   map[string]*models.User
	CreateErr error
	nextID    int64
}

func (m *UserRepoMock) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	if _, ok := m.ByEmail[u.Email]; ok {
		return 0, fmt.Errorf("unique constraint: users.email")
	}
	m.nextID++
	cp := *u
	cp.ID = m.nextID
	if cp.Created == 0 {
		cp.Created = time.Now().UTC().Unix()
	}
	m.ByEmail[u.Email] = &cp
	return cp.ID, nil
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.ByEmail[email]; ok {
		return u, nil
	}
	return nil, nil
}

func (m *UserRepoMock) SetVerified(ctx context.Context, email string) error {
	if u, ok := m.ByEmail[email]; ok {
		u.Verified = true
	}
	return nil
}

func (m *UserRepoMock) SetAdmin(ctx context.Context, email string, admin bool) error {
	if u, ok := m.ByEmail[email]; ok {
		u.IsAdmin = admin
	}
	return nil
}

type OTPRepoMock struct {
	ByEmail      map[string]*models.OTP
	SupersedeErr error
	nextID       int64
}

func (m *OTPRepoMock) Supersede(ctx context.Context, o *models.OTP) (int64, error) {
	if m.SupersedeErr != nil {
		return 0, m.SupersedeErr
	}
	m.nextID++
	cp := *o
	cp.ID = m.nextID
	if cp.Created == 0 {
		cp.Created = time.Now().UTC().Unix()
	}
	m.ByEmail[o.Email] = &cp
	return cp.ID, nil
}

func (m *OTPRepoMock) GetOTPByEmail(ctx context.Context, email string) (*models.OTP, error) {
	if o, ok := m.ByEmail[email]; ok {
		return o, nil
	}
	return nil, nil
}

func (m *OTPRepoMock) DeleteOTPByEmail(ctx context.Context, email string) error {
	delete(m.ByEmail, email)
	return nil
}

type ApplicationRepoMock struct {
	Apps      []*models.Application
	CreateErr error
	UpdateErr error
	nextID    int64
}

func (m *ApplicationRepoMock) CreateApplication(ctx context.Context, a *models.Application) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *a
	cp.ID = m.nextID
	m.Apps = append(m.Apps, &cp)
	return cp.ID, nil
}

func (m *ApplicationRepoMock) GetApplicationByID(ctx context.Context, id int64) (*models.Application, error) {
	for _, a := range m.Apps {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// ListByOwner returns the owner's applications newest-first (reverse
// insertion order, matching the created DESC ordering of the real repo).
func (m *ApplicationRepoMock) ListByOwner(ctx context.Context, email string) ([]models.Application, error) {
	var out []models.Application
	for i := len(m.Apps) - 1; i >= 0; i-- {
		if m.Apps[i].UserEmail == email {
			out = append(out, *m.Apps[i])
		}
	}
	return out, nil
}

func (m *ApplicationRepoMock) ListAll(ctx context.Context) ([]models.Application, error) {
	var out []models.Application
	for i := len(m.Apps) - 1; i >= 0; i-- {
		out = append(out, *m.Apps[i])
	}
	return out, nil
}

func (m *ApplicationRepoMock) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, a := range m.Apps {
		if a.ID == id {
			a.Status = status
			return nil
		}
	}
	return fmt.Errorf("application %d not found", id)
}

func (m *ApplicationRepoMock) SetDelivery(ctx context.Context, id int64, d *models.Delivery, deliveredAt int64) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, a := range m.Apps {
		if a.ID == id {
			a.DeliveryFileURL = d.FileURL
			a.DeliveryAPKURL = d.APKURL
			a.DeliveryGithubURL = d.GithubURL
			a.DeliveryDeployedURL = d.DeployedURL
			a.DeliveryNotes = d.Notes
			a.DeliveredAt = &deliveredAt
			a.Status = models.StatusCompleted
			return nil
		}
	}
	return fmt.Errorf("application %d not found", id)
}

type FileRepoMock struct {
	Files     []*models.UploadedFile
	CreateErr error
	nextID    int64
}

func (m *FileRepoMock) CreateFile(ctx context.Context, f *models.UploadedFile) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *f
	cp.ID = m.nextID
	if cp.Created == 0 {
		cp.Created = time.Now().UTC().Unix()
	}
	m.Files = append(m.Files, &cp)
	return cp.ID, nil
}

func (m *FileRepoMock) GetFileByID(ctx context.Context, id int64) (*models.UploadedFile, error) {
	for _, f := range m.Files {
		if f.ID == id {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *FileRepoMock) ListFiles(ctx context.Context) ([]models.UploadedFile, error) {
	var out []models.UploadedFile
	for i := len(m.Files) - 1; i >= 0; i-- {
		cp := *m.Files[i]
		cp.Data = nil
		out = append(out, cp)
	}
	return out, nil
}
