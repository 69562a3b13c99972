package config

import (
	"time"

	sharedconfig "github.com/talentledger/anchor-service/internal/shared/config"
)

type PublishingConfig struct {
	// PollMaxAttempts and PollInterval bound the background status poller;
	// their product is the only timeout on an in-flight publish.
	PollMaxAttempts int
	PollInterval    time.Duration
	// FinalizeAttempts and FinalizeBackoff bound retries of the terminal
	// Record Store write.
	FinalizeAttempts int
	FinalizeBackoff  time.Duration
	// SweepInterval and SweepThreshold drive the reconciliation sweep over
	// records stuck in publishing.
	SweepInterval  time.Duration
	SweepThreshold time.Duration
	// ArchiveBucket is the S3 bucket for submitted document snapshots;
	// archiving is disabled when empty.
	ArchiveBucket *string
}

func NewPublishingConfig() PublishingConfig {
	return PublishingConfig{}
}

func (c PublishingConfig) LoadWithEnvSettings(environmentSettings PublishingEnvironmentSettings) (PublishingConfig, error) {
	if c.PollMaxAttempts == 0 {
		pollMaxAttempts, err := environmentSettings.PollMaxAttempts.GetInt()
		if err != nil {
			return PublishingConfig{}, err
		}
		c.PollMaxAttempts = pollMaxAttempts
	}
	if c.PollInterval == 0 {
		pollInterval, err := environmentSettings.PollInterval.GetDuration()
		if err != nil {
			return PublishingConfig{}, err
		}
		c.PollInterval = pollInterval
	}
	if c.FinalizeAttempts == 0 {
		finalizeAttempts, err := environmentSettings.FinalizeAttempts.GetInt()
		if err != nil {
			return PublishingConfig{}, err
		}
		c.FinalizeAttempts = finalizeAttempts
	}
	if c.FinalizeBackoff == 0 {
		finalizeBackoff, err := environmentSettings.FinalizeBackoff.GetDuration()
		if err != nil {
			return PublishingConfig{}, err
		}
		c.FinalizeBackoff = finalizeBackoff
	}
	if c.SweepInterval == 0 {
		sweepInterval, err := environmentSettings.SweepInterval.GetDuration()
		if err != nil {
			return PublishingConfig{}, err
		}
		c.SweepInterval = sweepInterval
	}
	if c.SweepThreshold == 0 {
		sweepThreshold, err := environmentSettings.SweepThreshold.GetDuration()
		if err != nil {
			return PublishingConfig{}, err
		}
		c.SweepThreshold = sweepThreshold
	}
	if c.ArchiveBucket == nil {
		c.ArchiveBucket = environmentSettings.ArchiveBucket.GetNillable()
	}
	return c, nil
}

func (c PublishingConfig) Load() (PublishingConfig, error) {
	return c.LoadWithEnvSettings(DeployedPublishingEnvironmentSettings)
}

type PublishingEnvironmentSettings struct {
	PollMaxAttempts  sharedconfig.EnvironmentSetting
	PollInterval     sharedconfig.EnvironmentSetting
	FinalizeAttempts sharedconfig.EnvironmentSetting
	FinalizeBackoff  sharedconfig.EnvironmentSetting
	SweepInterval    sharedconfig.EnvironmentSetting
	SweepThreshold   sharedconfig.EnvironmentSetting
	ArchiveBucket    sharedconfig.EnvironmentSetting
}

const PublishPollMaxAttemptsKey = "PUBLISH_POLL_MAX_ATTEMPTS"
const PublishPollIntervalKey = "PUBLISH_POLL_INTERVAL"
const PublishFinalizeAttemptsKey = "PUBLISH_FINALIZE_ATTEMPTS"
const PublishFinalizeBackoffKey = "PUBLISH_FINALIZE_BACKOFF"
const PublishSweepIntervalKey = "PUBLISH_SWEEP_INTERVAL"
const PublishSweepThresholdKey = "PUBLISH_SWEEP_THRESHOLD"
const DocumentArchiveBucketKey = "DOCUMENT_ARCHIVE_BUCKET"

var DeployedPublishingEnvironmentSettings = PublishingEnvironmentSettings{
	PollMaxAttempts:  sharedconfig.NewEnvironmentSettingWithDefault(PublishPollMaxAttemptsKey, "10"),
	PollInterval:     sharedconfig.NewEnvironmentSettingWithDefault(PublishPollIntervalKey, "3s"),
	FinalizeAttempts: sharedconfig.NewEnvironmentSettingWithDefault(PublishFinalizeAttemptsKey, "3"),
	FinalizeBackoff:  sharedconfig.NewEnvironmentSettingWithDefault(PublishFinalizeBackoffKey, "1s"),
	SweepInterval:    sharedconfig.NewEnvironmentSettingWithDefault(PublishSweepIntervalKey, "5m"),
	SweepThreshold:   sharedconfig.NewEnvironmentSettingWithDefault(PublishSweepThresholdKey, "10m"),
	ArchiveBucket:    sharedconfig.NewEnvironmentSetting(DocumentArchiveBucketKey),
}
