package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/dates"
	"github.com/ukydev/servicelog/internal/models"
)

var providers = []string{"AutoFix", "QuickLube", "FleetCare", "RoadStar", "Midas"}

var descriptions = map[models.ServiceType][]string{
	models.ServicePlanned:   {"Oil and filter change", "Tyre rotation", "Annual inspection", "Brake fluid flush"},
	models.ServiceUnplanned: {"Replace alternator", "Fix coolant leak", "Replace worn brake pads"},
	models.ServiceEmergency: {"Roadside tow after breakdown", "Battery jump start", "Flat tyre on highway"},
}

var authToken string

var client = &http.Client{Timeout: 10 * time.Second}

func authorizedDo(method, url string, body *bytes.Buffer) (*http.Response, error) {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	return client.Do(req)
}

// randomServiceLog builds a complete set of form fields as raw values.
func randomServiceLog(rng *rand.Rand, now time.Time) map[string]interface{} {
	typ := models.ServiceTypes[rng.Intn(len(models.ServiceTypes))]
	start := now.AddDate(0, 0, -rng.Intn(90))
	return map[string]interface{}{
		"providerId":         providers[rng.Intn(len(providers))],
		"serviceOrder":       fmt.Sprintf("SO-%05d", rng.Intn(100000)),
		"carId":              fmt.Sprintf("CAR-%03d", rng.Intn(1000)),
		"odometer":           float64(5000 + rng.Intn(200000)),
		"engineHours":        float64(rng.Intn(8000)) + 0.5,
		"startDate":          start.Format(dates.Layout),
		"type":               string(typ),
		"serviceDescription": descriptions[typ][rng.Intn(len(descriptions[typ]))],
	}
}

func login(apiURL, username, password string) (string, error) {
	data, err := json.Marshal(models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login: %w", err)
	}
	resp, err := client.Post(apiURL+"/auth/login", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}

	var result models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Token, nil
}

// submitServiceLog fills the live form and submits it, returning the new record.
func submitServiceLog(apiURL string, fields map[string]interface{}) (*models.ServiceRecord, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	resp, err := authorizedDo(http.MethodPatch, apiURL+"/form", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to fill form: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("form update failed with status: %d", resp.StatusCode)
	}

	resp, err = authorizedDo(http.MethodPost, apiURL+"/form/submit", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to submit form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var body struct {
			Errors map[string]string `json:"errors"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("submit failed with status %d: %v", resp.StatusCode, body.Errors)
	}

	var rec models.ServiceRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &rec, nil
}

// saveDraft fills the live form and parks it as a draft.
func saveDraft(apiURL string, fields map[string]interface{}) (*models.ServiceLogDraft, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	resp, err := authorizedDo(http.MethodPatch, apiURL+"/form", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to fill form: %w", err)
	}
	resp.Body.Close()

	resp, err = authorizedDo(http.MethodPost, apiURL+"/drafts", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("draft creation failed with status: %d", resp.StatusCode)
	}

	var d models.ServiceLogDraft
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &d, nil
}

// simulate submits count logs, parking roughly one in draftEvery as a draft
// instead. It returns how many records were created.
func simulate(apiURL string, rng *rand.Rand, count, draftEvery int, interval time.Duration) int {
	created := 0
	for i := 0; i < count; i++ {
		fields := randomServiceLog(rng, time.Now())
		if draftEvery > 0 && rng.Intn(draftEvery) == 0 {
			d, err := saveDraft(apiURL, fields)
			if err != nil {
				log.WithError(err).Error("Failed to save draft")
			} else {
				log.WithFields(log.Fields{"draft_id": d.ID, "provider_id": d.ProviderID}).Info("Saved draft")
			}
		} else {
			rec, err := submitServiceLog(apiURL, fields)
			if err != nil {
				log.WithError(err).Error("Failed to submit service log")
			} else {
				created++
				log.WithFields(log.Fields{
					"log_id":      rec.ID,
					"provider_id": rec.ProviderID,
					"car_id":      rec.CarID,
					"type":        rec.Type,
				}).Info("Submitted service log")
			}
		}
		if interval > 0 && i < count-1 {
			time.Sleep(interval)
		}
	}
	return created
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	if authToken == "" {
		if user, pass := os.Getenv("SIM_USERNAME"), os.Getenv("SIM_PASSWORD"); user != "" && pass != "" {
			token, err := login(apiURL, user, pass)
			if err != nil {
				log.WithError(err).Fatal("Failed to login")
			}
			authToken = token
		}
	}

	count := getenvInt("SIM_COUNT", 20)
	draftEvery := getenvInt("SIM_DRAFT_EVERY", 5)
	interval := time.Duration(getenvInt("SIM_INTERVAL_MS", 500)) * time.Millisecond

	log.WithFields(log.Fields{
		"count":    count,
		"api_url":  apiURL,
		"interval": interval,
	}).Info("Starting service log simulation")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created := simulate(apiURL, rng, count, draftEvery, interval)

	log.WithField("created_logs", created).Info("Simulation completed")
}
