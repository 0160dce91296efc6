// Package mappers converts between domain entities and persistence models.
package mappers

import (
	"fmt"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/infrastructure/persistence/models"
)

// ServiceMapper converts between service.Service and models.ServiceModel.
type ServiceMapper struct{}

// NewServiceMapper creates a ServiceMapper.
func NewServiceMapper() ServiceMapper {
	return ServiceMapper{}
}

// ToModel maps a domain service to its persistence model.
func (ServiceMapper) ToModel(svc *service.Service) *models.ServiceModel {
	var groupID *uint
	if gid := svc.NodeGroupID(); gid != 0 {
		groupID = &gid
	}
	return &models.ServiceModel{
		ID:              svc.ID(),
		SID:             svc.SID(),
		UUID:            svc.UUID(),
		TokenHash:       svc.TokenHash(),
		UploadBytes:     svc.UploadBytes(),
		DownloadBytes:   svc.DownloadBytes(),
		BandwidthLimit:  svc.BandwidthLimit(),
		Status:          svc.Status().String(),
		SuspendReason:   svc.SuspendReason().String(),
		NodeGroupID:     groupID,
		MonthlyResetDay: svc.MonthlyResetDay(),
		ResetOptOut:     svc.ResetOptOut(),
		LastResetAt:     svc.LastResetAt(),
		Version:         svc.Version(),
		CreatedAt:       svc.CreatedAt(),
		UpdatedAt:       svc.UpdatedAt(),
	}
}

// ToEntity maps a persistence model to the domain service.
func (ServiceMapper) ToEntity(m *models.ServiceModel) (*service.Service, error) {
	status, err := service.ParseStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("service %d: %w", m.ID, err)
	}
	reason, err := service.ParseSuspendReason(m.SuspendReason)
	if err != nil {
		return nil, fmt.Errorf("service %d: %w", m.ID, err)
	}

	var groupID uint
	if m.NodeGroupID != nil {
		groupID = *m.NodeGroupID
	}

	return service.ReconstructService(
		m.ID,
		m.SID, m.UUID, m.TokenHash,
		m.UploadBytes, m.DownloadBytes, m.BandwidthLimit,
		status, reason,
		groupID,
		m.MonthlyResetDay,
		m.ResetOptOut,
		m.LastResetAt,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

// ToEntities maps a slice of models.
func (mp ServiceMapper) ToEntities(ms []*models.ServiceModel) ([]*service.Service, error) {
	entities := make([]*service.Service, 0, len(ms))
	for _, m := range ms {
		e, err := mp.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
