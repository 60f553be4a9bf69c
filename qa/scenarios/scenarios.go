// Package scenarios loads demand, resource and what-if fixtures from yaml
// files. Fixtures are the input format of the CLI and the scenario tests; a
// realistic Chubut demo set is embedded.
package scenarios

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matiasvr/fireline/core/model"
	"github.com/matiasvr/fireline/core/scoring"
)

//go:embed chubut.yaml
var chubutYAML []byte

// Fixture is a fully parsed scenario file.
type Fixture struct {
	Assets    []model.ProtectedAsset
	Demands   []model.DemandPoint
	Resources []model.Resource
	Scenarios []scoring.Scenario
}

type fileLocation struct {
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
	Name string  `yaml:"name"`
}

func (l fileLocation) toModel() model.Location {
	return model.Location{Lat: l.Lat, Lon: l.Lon, Name: l.Name}
}

type fileAsset struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Location fileLocation `yaml:"location"`
	Value    float64      `yaml:"value"`
}

type fileDemand struct {
	ID        string       `yaml:"id"`
	Location  fileLocation `yaml:"location"`
	Kind      string       `yaml:"kind"`
	Severity  string       `yaml:"severity"`
	Intensity float64      `yaml:"intensity"`
	Priority  float64      `yaml:"priority"`
	Urgency   float64      `yaml:"urgency"`
	Workload  float64      `yaml:"workload"`
	ClusterID string       `yaml:"cluster_id"`
}

type fileResource struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	Kind         string       `yaml:"kind"`
	Location     fileLocation `yaml:"location"`
	Base         fileLocation `yaml:"base"`
	Capacity     float64      `yaml:"capacity"`
	SpeedKMH     float64      `yaml:"speed_kmh"`
	RangeKM      float64      `yaml:"range_km"`
	HoursLeft    float64      `yaml:"hours_left"`
	ShiftLeft    float64      `yaml:"shift_left"`
	Available    *bool        `yaml:"available"`
	Capabilities []string     `yaml:"capabilities"`
}

type fileFixture struct {
	Assets    []fileAsset        `yaml:"assets"`
	Demands   []fileDemand       `yaml:"demands"`
	Resources []fileResource     `yaml:"resources"`
	Scenarios []scoring.Scenario `yaml:"scenarios"`
}

// Load parses the fixture file at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Demo returns the embedded Chubut / Los Alerces demo fixture.
func Demo() *Fixture {
	fx, err := Parse(chubutYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded fixture invalid: %v", err))
	}
	return fx
}

// Parse decodes and validates a yaml fixture.
func Parse(data []byte) (*Fixture, error) {
	var ff fileFixture
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	fx := &Fixture{}
	for _, a := range ff.Assets {
		asset := model.ProtectedAsset{
			ID:       a.ID,
			Name:     a.Name,
			Kind:     model.AssetKind(a.Kind),
			Location: a.Location.toModel(),
			Value:    a.Value,
		}
		if err := asset.Validate(); err != nil {
			return nil, err
		}
		fx.Assets = append(fx.Assets, asset)
	}
	for _, d := range ff.Demands {
		sev, err := parseSeverity(d.Severity)
		if err != nil {
			return nil, fmt.Errorf("demand %s: %w", d.ID, err)
		}
		dp := model.DemandPoint{
			ID:        d.ID,
			Location:  d.Location.toModel(),
			Kind:      model.DemandKind(d.Kind),
			Severity:  sev,
			Intensity: d.Intensity,
			Priority:  d.Priority,
			Urgency:   d.Urgency,
			Workload:  d.Workload,
			ClusterID: d.ClusterID,
		}
		if err := dp.Validate(); err != nil {
			return nil, err
		}
		fx.Demands = append(fx.Demands, dp)
	}
	for _, r := range ff.Resources {
		kind := model.ResourceKind(r.Kind)
		res := model.Resource{
			ID:        r.ID,
			Name:      r.Name,
			Kind:      kind,
			Location:  r.Location.toModel(),
			Base:      r.Base.toModel(),
			Capacity:  r.Capacity,
			SpeedKMH:  r.SpeedKMH,
			RangeKM:   r.RangeKM,
			HoursLeft: r.HoursLeft,
			ShiftLeft: r.ShiftLeft,
			Available: r.Available == nil || *r.Available,
		}
		if len(r.Capabilities) > 0 {
			for _, c := range r.Capabilities {
				res.Capabilities = append(res.Capabilities, model.Capability(c))
			}
		} else {
			res.Capabilities = model.DefaultCapabilities(kind)
		}
		if err := res.Validate(); err != nil {
			return nil, err
		}
		fx.Resources = append(fx.Resources, res)
	}
	fx.Scenarios = ff.Scenarios
	return fx, nil
}

// Scenario returns the named what-if scenario from the fixture.
func (f *Fixture) Scenario(name string) (scoring.Scenario, bool) {
	for _, sc := range f.Scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return scoring.Scenario{}, false
}

func parseSeverity(s string) (model.Severity, error) {
	switch s {
	case "low", "":
		return model.SeverityLow, nil
	case "medium":
		return model.SeverityMedium, nil
	case "high":
		return model.SeverityHigh, nil
	case "critical":
		return model.SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}
