package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/kubev2v/migration-wave-planner/internal/scoring"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Planning *planningConfig
	Export   *exportConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"planner"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"WAVE_PLANNER_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"WAVE_PLANNER_METRICS_ADDRESS" default:":8080"`
	LogLevel        string `envconfig:"WAVE_PLANNER_LOG_LEVEL" default:"info"`
	LogFormat       string `envconfig:"WAVE_PLANNER_LOG_FORMAT" default:"console"`
	MigrationFolder string `envconfig:"WAVE_PLANNER_MIGRATIONS_FOLDER" default:""`
	// AgentReachable is the execution agent state fed to pre-flight checks.
	AgentReachable bool   `envconfig:"WAVE_PLANNER_AGENT_REACHABLE" default:"true"`
	EventsTopic    string `envconfig:"WAVE_PLANNER_EVENTS_TOPIC" default:""`
}

// planningConfig holds the defaults new projects start from.
type planningConfig struct {
	LinkBandwidthMbps     float64 `envconfig:"PLANNER_LINK_BANDWIDTH_MBPS" default:"1000"`
	EfficiencyFactor      float64 `envconfig:"PLANNER_EFFICIENCY_FACTOR" default:"0.75"`
	OverheadFactor        float64 `envconfig:"PLANNER_OVERHEAD_FACTOR" default:"1.14"`
	CutoverUnitHours      float64 `envconfig:"PLANNER_CUTOVER_UNIT_HOURS" default:"0.25"`
	AgentSlots            int     `envconfig:"PLANNER_AGENT_SLOTS" default:"1"`
	VMsPerDayPerSlot      float64 `envconfig:"PLANNER_VMS_PER_DAY_PER_SLOT" default:"20"`
	WorkingHoursPerDay    float64 `envconfig:"PLANNER_WORKING_HOURS_PER_DAY" default:"8"`
	DeadlineDays          float64 `envconfig:"PLANNER_DEADLINE_DAYS" default:"0"`
	CPUOvercommit         string  `envconfig:"PLANNER_CPU_OVERCOMMIT" default:"1:4"`
	MemoryOvercommit      string  `envconfig:"PLANNER_MEMORY_OVERCOMMIT" default:"1:1"`
	PeakBufferPct         float64 `envconfig:"PLANNER_PEAK_BUFFER_PCT" default:"15"`
	PerfCoverageThreshold float64 `envconfig:"PLANNER_PERF_COVERAGE_THRESHOLD_PCT" default:"50"`
	WaveSize              int     `envconfig:"PLANNER_WAVE_SIZE" default:"25"`
}

type exportConfig struct {
	Endpoint  string `envconfig:"WAVE_PLANNER_EXPORT_S3_ENDPOINT" default:""`
	Bucket    string `envconfig:"WAVE_PLANNER_EXPORT_S3_BUCKET" default:"wave-plans"`
	AccessKey string `envconfig:"WAVE_PLANNER_EXPORT_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"WAVE_PLANNER_EXPORT_S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"WAVE_PLANNER_EXPORT_S3_USE_SSL" default:"true"`
}

// Enabled reports whether exports are published to object storage.
func (e *exportConfig) Enabled() bool {
	return e.Endpoint != ""
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration backed by an in-memory sqlite database
// and the built-in planning defaults. It never reads the environment.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			LogLevel:       "info",
			LogFormat:      "console",
			AgentReachable: true,
		},
		Planning: &planningConfig{
			LinkBandwidthMbps:     plan.DefaultLinkBandwidthMbps,
			EfficiencyFactor:      plan.DefaultEfficiencyFactor,
			OverheadFactor:        plan.DefaultOverheadFactor,
			CutoverUnitHours:      plan.DefaultCutoverUnitHours,
			AgentSlots:            plan.DefaultAgentSlots,
			VMsPerDayPerSlot:      plan.DefaultVMsPerDayPerSlot,
			WorkingHoursPerDay:    plan.DefaultWorkingHoursPerDay,
			CPUOvercommit:         plan.DefaultCPUOvercommit,
			MemoryOvercommit:      plan.DefaultMemoryOvercommit,
			PeakBufferPct:         plan.DefaultPeakBufferPct,
			PerfCoverageThreshold: plan.DefaultPerfCoverageThreshold,
			WaveSize:              plan.DefaultWaveSize,
		},
		Export: &exportConfig{Bucket: "wave-plans", UseSSL: true},
	}
}

// ProjectDefaults converts the planning section into the configuration a new
// project is created with.
func (c *Config) ProjectDefaults() plan.ProjectConfig {
	p := c.Planning
	if p == nil {
		return plan.DefaultProjectConfig()
	}
	return plan.ProjectConfig{
		LinkBandwidthMbps:     p.LinkBandwidthMbps,
		EfficiencyFactor:      p.EfficiencyFactor,
		OverheadFactor:        p.OverheadFactor,
		CutoverUnitHours:      p.CutoverUnitHours,
		AgentSlots:            p.AgentSlots,
		VMsPerDayPerSlot:      p.VMsPerDayPerSlot,
		WorkingHoursPerDay:    p.WorkingHoursPerDay,
		DeadlineDays:          p.DeadlineDays,
		Overcommit:            plan.OvercommitProfile{CPU: p.CPUOvercommit, Memory: p.MemoryOvercommit},
		PeakBufferPct:         p.PeakBufferPct,
		PerfCoverageThreshold: p.PerfCoverageThreshold,
		WaveSize:              p.WaveSize,
		Weights:               scoring.DefaultWeights(),
		Preflight:             plan.DefaultPreflightCatalogue(),
	}
}
