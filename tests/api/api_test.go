//go:build api

package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serviceURL = "http://localhost:8080"

// mockSecret must match MOCK_PAYMENT_SECRET of the running service.
var mockSecret = envOr("MOCK_PAYMENT_SECRET", "mock-secret")

// TestAPI_FullFlow drives a complete purchase end-to-end against a running
// instance: organizer setup, checkout through the mock provider, signed
// webhook confirmation, ticket retrieval, replay.
func TestAPI_FullFlow(t *testing.T) {
	waitForService(t)

	var eventID, ticketTypeID float64
	var orderID, providerRef string

	// Step 1: Organizer creates an event
	t.Run("Step1_CreateEvent", func(t *testing.T) {
		t.Log("STEP 1: Create Event")
		t.Log("    Request:  POST /api/v1/events")

		eventReq := map[string]interface{}{
			"organizer_id":  "org-001",
			"name":          "Kigali Jazz Night",
			"venue":         "BK Arena",
			"starts_at":     time.Now().Add(72 * time.Hour).Format(time.RFC3339),
			"sales_open_at": time.Now().Add(-1 * time.Hour).Format(time.RFC3339),
			"sales_end_at":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		}

		resp := post(t, serviceURL+"/api/v1/events", eventReq)
		require.Equal(t, 201, resp.StatusCode, "Should create event successfully")

		var eventResp map[string]interface{}
		decodeJSON(t, resp, &eventResp)
		eventID = eventResp["id"].(float64)

		t.Logf("    Result:   HTTP 201 Created, id=%v", eventID)
	})

	// Step 2: Organizer opens a ticket type
	t.Run("Step2_CreateTicketType", func(t *testing.T) {
		t.Log("STEP 2: Create Ticket Type")
		t.Logf("    Request:  POST /api/v1/events/%v/ticket-types", eventID)

		ttReq := map[string]interface{}{
			"name":           "General Admission",
			"price":          "5000",
			"currency":       "RWF",
			"quantity_total": 100,
		}

		resp := post(t, fmt.Sprintf("%s/api/v1/events/%v/ticket-types", serviceURL, eventID), ttReq)
		require.Equal(t, 201, resp.StatusCode)

		var ttResp map[string]interface{}
		decodeJSON(t, resp, &ttResp)
		ticketTypeID = ttResp["id"].(float64)

		t.Logf("    Result:   HTTP 201 Created, id=%v", ticketTypeID)
	})

	// Step 3: Buyer checks out through the mock provider
	t.Run("Step3_Checkout", func(t *testing.T) {
		t.Log("STEP 3: Checkout (mock provider)")
		t.Log("    Request:  POST /api/v1/checkout")

		checkoutReq := map[string]interface{}{
			"event_id":    eventID,
			"buyer_id":    "buyer-001",
			"buyer_email": "buyer@example.com",
			"provider":    "mock",
			"items": []map[string]interface{}{
				{"ticket_type_id": ticketTypeID, "quantity": 2},
			},
		}

		resp := post(t, serviceURL+"/api/v1/checkout", checkoutReq)
		require.Equal(t, 201, resp.StatusCode, "Should open a pending order")

		var checkoutResp map[string]interface{}
		decodeJSON(t, resp, &checkoutResp)

		orderID = checkoutResp["order_id"].(string)
		providerRef = checkoutResp["provider_ref"].(string)

		assert.Equal(t, "pending", checkoutResp["status"])
		assert.Equal(t, "RWF", checkoutResp["currency"])

		t.Logf("    Result:   HTTP 201 Created, order_id=%v, total=%v", orderID, checkoutResp["total_amount"])
	})

	// Step 4: No tickets before payment
	t.Run("Step4_NoTicketsYet", func(t *testing.T) {
		t.Log("STEP 4: No Tickets Before Confirmation")
		t.Logf("    Request:  GET /api/v1/orders/%v/tickets", orderID)

		resp := get(t, serviceURL+"/api/v1/orders/"+orderID+"/tickets")
		require.Equal(t, 200, resp.StatusCode)

		var tickets []map[string]interface{}
		decodeJSON(t, resp, &tickets)
		assert.Empty(t, tickets, "No tickets until the order is paid")

		t.Log("    Result:   HTTP 200 OK, empty set")
	})

	// Step 5: Signed webhook confirms the payment
	t.Run("Step5_WebhookConfirmation", func(t *testing.T) {
		t.Log("STEP 5: Webhook Confirmation")
		t.Log("    Request:  POST /api/v1/webhooks/mock")

		payload := fmt.Sprintf(`{"order_id": %q, "reference": %q, "outcome": "success"}`, orderID, providerRef)
		resp := postSigned(t, serviceURL+"/api/v1/webhooks/mock", payload)
		require.Equal(t, 200, resp.StatusCode)

		var webhookResp map[string]interface{}
		decodeJSON(t, resp, &webhookResp)

		assert.Equal(t, "processed", webhookResp["status"])
		assert.Equal(t, float64(2), webhookResp["tickets_issued"])

		t.Logf("    Result:   HTTP 200 OK, tickets_issued=%v", webhookResp["tickets_issued"])
	})

	// Step 6: Replayed webhook is a no-op
	t.Run("Step6_WebhookReplay", func(t *testing.T) {
		t.Log("STEP 6: Webhook Replay (provider retry)")

		payload := fmt.Sprintf(`{"order_id": %q, "reference": %q, "outcome": "success"}`, orderID, providerRef)
		resp := postSigned(t, serviceURL+"/api/v1/webhooks/mock", payload)
		require.Equal(t, 200, resp.StatusCode)

		var webhookResp map[string]interface{}
		decodeJSON(t, resp, &webhookResp)
		assert.Equal(t, "ignored", webhookResp["status"], "Replay must not issue tickets again")

		t.Log("    Result:   HTTP 200 OK, ignored")
	})

	// Step 7: Unsigned webhook is rejected
	t.Run("Step7_UnsignedWebhookRejected", func(t *testing.T) {
		t.Log("STEP 7: Unsigned Webhook Rejected")

		payload := fmt.Sprintf(`{"order_id": %q, "outcome": "success"}`, orderID)
		resp := post(t, serviceURL+"/api/v1/webhooks/mock", json.RawMessage(payload))
		assert.Equal(t, 400, resp.StatusCode, "Missing signature must be rejected")
		resp.Body.Close()

		t.Log("    Result:   HTTP 400 Bad Request")
	})

	// Step 8: Buyer retrieves the tickets
	t.Run("Step8_GetTickets", func(t *testing.T) {
		t.Log("STEP 8: Get Tickets")
		t.Logf("    Request:  GET /api/v1/orders/%v/tickets", orderID)

		resp := get(t, serviceURL+"/api/v1/orders/"+orderID+"/tickets")
		require.Equal(t, 200, resp.StatusCode)

		var tickets []map[string]interface{}
		decodeJSON(t, resp, &tickets)
		require.Len(t, tickets, 2)

		for i, ticket := range tickets {
			assert.Equal(t, float64(i+1), ticket["seq_no"])
			assert.Equal(t, "active", ticket["status"])
			assert.NotEmpty(t, ticket["code"])
		}

		t.Logf("    Result:   HTTP 200 OK, %d tickets", len(tickets))
	})

	// Step 9: Order shows as paid in the buyer's history
	t.Run("Step9_BuyerOrderHistory", func(t *testing.T) {
		t.Log("STEP 9: Buyer Order History")
		t.Log("    Request:  GET /api/v1/buyers/buyer-001/orders")

		resp := get(t, serviceURL+"/api/v1/buyers/buyer-001/orders")
		require.Equal(t, 200, resp.StatusCode)

		var orders []map[string]interface{}
		decodeJSON(t, resp, &orders)
		require.NotEmpty(t, orders)
		assert.Equal(t, "paid", orders[0]["status"])

		t.Logf("    Result:   HTTP 200 OK, %d order(s)", len(orders))
	})
}

// Helper functions

func waitForService(t *testing.T) {
	t.Log("Waiting for service to be ready...")

	maxRetries := 30
	for i := 0; i < maxRetries; i++ {
		resp, err := http.Get(serviceURL + "/health")
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			t.Log("Service is ready")
			return
		}
		time.Sleep(1 * time.Second)
	}

	t.Fatal("Service did not become ready in time")
}

func get(t *testing.T, url string) *http.Response {
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp
}

func post(t *testing.T, url string, body interface{}) *http.Response {
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	return resp
}

func postSigned(t *testing.T, url, payload string) *http.Response {
	mac := hmac.New(sha256.New, []byte(mockSecret))
	mac.Write([]byte(payload))

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Callback-Signature", hex.EncodeToString(mac.Sum(nil)))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(target)
	if err != nil && resp.StatusCode >= 400 {
		// For error responses, body might not be JSON
		return
	}
	require.NoError(t, err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestMain(m *testing.M) {
	fmt.Println("Starting API tests against a running checkout service...")
	fmt.Println("")

	code := m.Run()

	fmt.Println("")
	fmt.Println("API tests complete")
	os.Exit(code)
}
