package integration

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext carries state between the steps of one scenario.
type StepsContext struct {
	tc           *TestContext
	token        string
	lastResponse *http.Response
	lastBody     []byte
	generatedKey string
}

func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I have an API token for "([^"]*)"$`, s.iHaveAnAPITokenFor)
	sc.Step(`^I have no API token$`, s.iHaveNoAPIToken)
	sc.Step(`^I POST "([^"]*)"$`, s.iPOST)
	sc.Step(`^I GET "([^"]*)"$`, s.iGET)
	sc.Step(`^I store "([^"]*)" at "([^"]*)"$`, s.iStoreAt)
	sc.Step(`^the response code is (\d+)$`, s.theResponseCodeIs)
	sc.Step(`^the response body is "([^"]*)"$`, s.theResponseBodyIs)
	sc.Step(`^the response field "([^"]*)" is a 64 character hex string$`, s.theResponseFieldIsHex)
	sc.Step(`^the response body equals the generated key$`, s.theResponseBodyEqualsGeneratedKey)
}

func (s *StepsContext) iHaveAnAPITokenFor(subject string) error {
	token, err := s.tc.TokenAuth.IssueToken(subject)
	if err != nil {
		return err
	}
	s.token = token
	return nil
}

func (s *StepsContext) iHaveNoAPIToken() error {
	s.token = ""
	return nil
}

func (s *StepsContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, s.tc.ServerURL+path, body)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.lastResponse = resp
	s.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (s *StepsContext) iPOST(path string) error {
	return s.do(http.MethodPost, path, nil)
}

func (s *StepsContext) iGET(path string) error {
	return s.do(http.MethodGet, path, nil)
}

func (s *StepsContext) iStoreAt(material, path string) error {
	return s.do(http.MethodPost, path, strings.NewReader(material))
}

func (s *StepsContext) theResponseCodeIs(code int) error {
	if s.lastResponse == nil {
		return fmt.Errorf("no response recorded")
	}
	if s.lastResponse.StatusCode != code {
		return fmt.Errorf("expected status %d, got %d (body: %s)", code, s.lastResponse.StatusCode, s.lastBody)
	}
	return nil
}

func (s *StepsContext) theResponseBodyIs(expected string) error {
	if string(s.lastBody) != expected {
		return fmt.Errorf("expected body %q, got %q", expected, s.lastBody)
	}
	return nil
}

func (s *StepsContext) theResponseFieldIsHex(field string) error {
	var payload map[string]string
	if err := json.Unmarshal(s.lastBody, &payload); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}

	value, ok := payload[field]
	if !ok {
		return fmt.Errorf("response has no field %q", field)
	}
	if len(value) != 64 {
		return fmt.Errorf("expected 64 characters, got %d", len(value))
	}
	if _, err := hex.DecodeString(value); err != nil {
		return fmt.Errorf("value is not hex: %w", err)
	}

	s.generatedKey = value
	return nil
}

func (s *StepsContext) theResponseBodyEqualsGeneratedKey() error {
	if s.generatedKey == "" {
		return fmt.Errorf("no key was generated in this scenario")
	}
	return s.theResponseBodyIs(s.generatedKey)
}
