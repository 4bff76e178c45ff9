package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ResourceID tags a renderer-owned object so its create and destroy log
// lines can be correlated. The kind prefix keeps grep-ability, the uuid
// suffix keeps uniqueness across swapchain generations.
type ResourceID string

func NewResourceID(kind string) ResourceID {
	return ResourceID(fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8]))
}

func (r ResourceID) String() string {
	return string(r)
}
