package shared

import (
	"strings"
	"testing"
)

func TestCreateResearchRequestDefaults(t *testing.T) {
	req := CreateResearchRequest{Query: "what is the airspeed of an unladen swallow"}
	req.ApplyDefaults()
	if req.MaxIterations != DefaultMaxIterations {
		t.Fatalf("max_iterations default: want=%d got=%d", DefaultMaxIterations, req.MaxIterations)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestCreateResearchRequestQueryBounds(t *testing.T) {
	req := CreateResearchRequest{Query: "", MaxIterations: 5}
	if err := req.Validate(); err == nil {
		t.Fatalf("empty query: want error")
	}

	req.Query = strings.Repeat("a", MaxQueryLength)
	if err := req.Validate(); err != nil {
		t.Fatalf("query at max length rejected: %v", err)
	}

	req.Query = strings.Repeat("a", MaxQueryLength+1)
	if err := req.Validate(); err == nil {
		t.Fatalf("query over max length: want error")
	}
}

func TestCreateResearchRequestMaxIterationsBounds(t *testing.T) {
	req := CreateResearchRequest{Query: "q", MaxIterations: 21}
	if err := req.Validate(); err == nil {
		t.Fatalf("max_iterations=21: want error")
	}
	req.MaxIterations = 20
	if err := req.Validate(); err != nil {
		t.Fatalf("max_iterations=20 rejected: %v", err)
	}
	req.MaxIterations = 1
	if err := req.Validate(); err != nil {
		t.Fatalf("max_iterations=1 rejected: %v", err)
	}
}

func TestCreateResearchRequestWebhookURL(t *testing.T) {
	bad := "not-a-url"
	req := CreateResearchRequest{Query: "q", MaxIterations: 5, WebhookURL: &bad}
	if err := req.Validate(); err == nil {
		t.Fatalf("bad webhook_url: want error")
	}
	good := "https://example.com/hooks/research"
	req.WebhookURL = &good
	if err := req.Validate(); err != nil {
		t.Fatalf("valid webhook_url rejected: %v", err)
	}
}
