package domain

import "errors"

// ErrNoCatalog is returned when no factory catalog provider is configured.
var ErrNoCatalog = errors.New("no factory catalog provider configured")

// ErrBuildFailed is returned when committing a selected plan to the live
// graph fails; the partial graph has been torn down.
var ErrBuildFailed = errors.New("graph instantiation failed")

// ErrPlanNotFound is returned by plan stores when no plan is cached under
// the requested signature.
var ErrPlanNotFound = errors.New("plan not found")
