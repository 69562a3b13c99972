package validate

import (
	"fmt"

	"github.com/talentledger/anchor-service/internal/api/apierrors"
	"github.com/talentledger/anchor-service/internal/api/dto"
)

const maxEpochs = 100

func PublishOptions(request dto.PublishRecordRequest) *apierrors.Error {
	switch request.Privacy {
	case "", "public", "private":
	default:
		return apierrors.NewBadRequestError(fmt.Sprintf("privacy must be public or private, got %q", request.Privacy))
	}
	if request.Epochs < 0 {
		return apierrors.NewBadRequestError(fmt.Sprintf("epochs cannot be negative: %d", request.Epochs))
	}
	if request.Epochs > maxEpochs {
		return apierrors.NewBadRequestError(fmt.Sprintf("epochs cannot be more than %d: %d", maxEpochs, request.Epochs))
	}
	if request.Priority < 0 {
		return apierrors.NewBadRequestError(fmt.Sprintf("priority cannot be negative: %d", request.Priority))
	}
	return nil
}
