package azure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

// wrapQueryError classifies an ARM read failure for the wait loop. A 404
// means the VM (or the resource group) is gone and polling again cannot
// help; everything else is assumed recoverable.
func wrapQueryError(h resource.Handle, err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return probe.Permanent(fmt.Errorf("querying %s: %w", h, err))
	}
	return probe.Transient(fmt.Errorf("querying %s: %w", h, err))
}
