package service

import (
	"fmt"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id string, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id string) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrRepositoryNotFound(id string) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "repository")
}

func NewErrMeetingNotFound(id string) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "meeting")
}

type ErrInvalidJobType struct {
	error
}

func NewErrInvalidJobType(jobType string) *ErrInvalidJobType {
	return &ErrInvalidJobType{fmt.Errorf("unknown job type %q", jobType)}
}
