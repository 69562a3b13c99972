package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentledger/anchor-service/internal/api/publishing"
	"github.com/talentledger/anchor-service/internal/api/store/records"
	"github.com/talentledger/anchor-service/internal/test/apitest"
	"github.com/talentledger/anchor-service/internal/test/configtest"
	"github.com/talentledger/anchor-service/internal/test/mocks"
)

func newOperationStatusRequest(t *testing.T, operationID string) *http.Request {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/operations/%s", operationID), nil)
	request.SetPathValue(OperationIDPathParamKey, operationID)
	return request
}

func TestGetOperationStatus(t *testing.T) {
	ctx := context.Background()
	operationID := "op-rec-42-1756600000000-abc123"

	t.Run("operation not found", func(t *testing.T) {
		container := apitest.NewTestContainer(t).
			WithRecordsStore(mocks.NewMockRecordsStore().
				WithGetRecordByOperationFunc(func(_ context.Context, _ string) (records.Record, error) {
					return records.Record{}, records.ErrRecordNotFound
				}))

		_, err := GetOperationStatus(ctx, Params{
			Request:   newOperationStatusRequest(t, operationID),
			Container: container,
			Config:    configtest.Config(),
		})
		require.NotNil(t, err)
		assert.Equal(t, http.StatusNotFound, err.StatusCode)
		assert.Contains(t, err.UserMessage, operationID)
	})

	t.Run("in-flight operation reports publishing", func(t *testing.T) {
		record := draftRecord(publishing.ProfileKind)
		record.PublishStatus = publishing.PublishingStatus
		record.OperationID = &operationID
		record.PendingHandle = publishing.Handle{AssetID: "asset-1"}

		container := apitest.NewTestContainer(t).
			WithRecordsStore(mocks.NewMockRecordsStore().
				WithGetRecordByOperationFunc(func(_ context.Context, requestedID string) (records.Record, error) {
					assert.Equal(t, operationID, requestedID)
					return record, nil
				}))
		require.NoError(t, container.Registry().Register(publishing.Operation{
			ID:       operationID,
			RecordID: testRecordID,
		}))

		response, err := GetOperationStatus(ctx, Params{
			Request:   newOperationStatusRequest(t, operationID),
			Container: container,
			Config:    configtest.Config(),
		})
		require.Nil(t, err)
		assert.True(t, response.Success)
		assert.Equal(t, string(publishing.PublishingStatus), response.Status)
	})

	// finalization clears operation_id but the lookup still matches through
	// last_operation_id, so a client polling the operation sees the terminal state
	t.Run("finished operation reports the terminal state", func(t *testing.T) {
		record := completedRecord()
		record.LastOperationID = &operationID

		container := apitest.NewTestContainer(t).
			WithRecordsStore(mocks.NewMockRecordsStore().
				WithGetRecordByOperationFunc(func(_ context.Context, _ string) (records.Record, error) {
					return record, nil
				})).
			WithExplorerURL("https://dkg.example.com")

		response, err := GetOperationStatus(ctx, Params{
			Request:   newOperationStatusRequest(t, operationID),
			Container: container,
			Config:    configtest.Config(),
		})
		require.Nil(t, err)
		assert.True(t, response.Success)
		assert.Equal(t, string(publishing.CompletedStatus), response.Status)
		assert.Equal(t, "did:dkg/otp:2043/12345", response.Locator)
		require.NotNil(t, response.Score)
	})
}
