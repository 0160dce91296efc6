// Package usage holds the append-only usage audit trail. Records are only
// ever inserted; retention and purging are an external concern.
package usage

import (
	"fmt"
	"time"
)

// Record is one ingested usage report.
type Record struct {
	id            uint
	serviceID     uint
	nodeID        uint
	uploadBytes   uint64
	downloadBytes uint64
	clientIP      string
	recordedAt    time.Time
}

// NewRecord creates an audit record for an ingested report.
func NewRecord(serviceID, nodeID uint, uploadBytes, downloadBytes uint64, clientIP string, recordedAt time.Time) (*Record, error) {
	if serviceID == 0 {
		return nil, fmt.Errorf("service ID cannot be zero")
	}
	if nodeID == 0 {
		return nil, fmt.Errorf("node ID cannot be zero")
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	return &Record{
		serviceID:     serviceID,
		nodeID:        nodeID,
		uploadBytes:   uploadBytes,
		downloadBytes: downloadBytes,
		clientIP:      clientIP,
		recordedAt:    recordedAt,
	}, nil
}

// ReconstructRecord rebuilds a record from persistence.
func ReconstructRecord(id, serviceID, nodeID uint, uploadBytes, downloadBytes uint64, clientIP string, recordedAt time.Time) (*Record, error) {
	if id == 0 {
		return nil, fmt.Errorf("record ID cannot be zero")
	}
	r, err := NewRecord(serviceID, nodeID, uploadBytes, downloadBytes, clientIP, recordedAt)
	if err != nil {
		return nil, err
	}
	r.id = id
	return r, nil
}

func (r *Record) ID() uint              { return r.id }
func (r *Record) ServiceID() uint       { return r.serviceID }
func (r *Record) NodeID() uint          { return r.nodeID }
func (r *Record) UploadBytes() uint64   { return r.uploadBytes }
func (r *Record) DownloadBytes() uint64 { return r.downloadBytes }
func (r *Record) ClientIP() string      { return r.clientIP }
func (r *Record) RecordedAt() time.Time { return r.recordedAt }
