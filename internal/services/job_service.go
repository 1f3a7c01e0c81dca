package services

import (
	"github.com/sjperalta/car-ledger-api/internal/jobs"
)

// JobStatus combines worker statistics with the conversion state
type JobStatus struct {
	jobs.WorkerStats
	ConversionInProgress bool   `json:"conversion_in_progress"`
	ActiveConversionRun  string `json:"active_conversion_run,omitempty"`
}

type JobService struct {
	worker     *jobs.Worker
	conversion *ConversionService
}

func NewJobService(worker *jobs.Worker, conversion *ConversionService) *JobService {
	return &JobService{
		worker:     worker,
		conversion: conversion,
	}
}

func (s *JobService) GetStatus() JobStatus {
	status := JobStatus{WorkerStats: s.worker.GetStats()}
	if s.conversion != nil {
		s.conversion.mu.RLock()
		status.ConversionInProgress = s.conversion.busy
		status.ActiveConversionRun = s.conversion.active
		s.conversion.mu.RUnlock()
	}
	return status
}
