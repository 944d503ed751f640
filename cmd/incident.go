package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/openaid/respond/core/incident"
	"github.com/openaid/respond/core/model"
)

var (
	incidentAPI      string
	incidentToken    string
	incidentReporter string
	incidentContact  string
	incidentSeverity string
	incidentType     string
	incidentAddress  string
	incidentLat      float64
	incidentLng      float64
	incidentTeams    []string
	incidentAll      bool
)

var incidentCmd = &cobra.Command{
	Use:   "incident",
	Short: "Create and dispatch an incident through a running service",
	RunE:  createIncident,
}

func init() {
	incidentCmd.Flags().StringVar(&incidentAPI, "api", "http://localhost:8080", "base URL of the service")
	incidentCmd.Flags().StringVar(&incidentToken, "token", "", "bearer token")
	incidentCmd.Flags().StringVar(&incidentReporter, "reporter", "", "reporter name")
	incidentCmd.Flags().StringVar(&incidentContact, "contact", "", "reporter contact")
	incidentCmd.Flags().StringVar(&incidentSeverity, "severity", "high", "incident severity")
	incidentCmd.Flags().StringVar(&incidentType, "type", "", "incident type")
	incidentCmd.Flags().StringVar(&incidentAddress, "address", "", "incident address")
	incidentCmd.Flags().Float64Var(&incidentLat, "lat", 0, "latitude")
	incidentCmd.Flags().Float64Var(&incidentLng, "lng", 0, "longitude")
	incidentCmd.Flags().StringSliceVar(&incidentTeams, "team", nil, "responding team key, repeatable (e.g. alpha-dayShift)")
	incidentCmd.Flags().BoolVar(&incidentAll, "all", false, "dispatch to all available responders")
	rootCmd.AddCommand(incidentCmd)
}

func createIncident(cmd *cobra.Command, args []string) error {
	teams := incidentTeams
	if incidentAll {
		teams = append(teams, model.AllRespondersTeam)
	}
	form := incident.Form{
		ReporterName:    incidentReporter,
		ReporterContact: incidentContact,
		Severity:        incidentSeverity,
		Type:            incidentType,
		Location:        model.Location{Address: incidentAddress, Lat: &incidentLat, Lng: &incidentLng},
		TeamIDs:         teams,
	}
	payload, err := json.Marshal(form)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		incidentAPI+"/api/incidents", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if incidentToken != "" {
		req.Header.Set("Authorization", "Bearer "+incidentToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create incident: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	var inc model.Incident
	if err := json.Unmarshal(body, &inc); err != nil {
		return err
	}
	fmt.Printf("incident %s dispatched to %d responders\n", inc.Code, len(inc.AssignedResponderUIDs))
	return nil
}
