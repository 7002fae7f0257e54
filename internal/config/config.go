// Package config loads the build-wide environment configuration, following
// the same ScryballConfig idiom ninesl/scryball uses in its state.go: a
// single small struct constructed once and passed by value into every
// component — generalized here to use viper for env-var binding with an
// explicit prefix.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment-variable prefix all config keys are bound
// under (e.g. MTGJSON_DEBUG, MTGJSON_OUTPUT_PATH).
const EnvPrefix = "MTGJSON"

// BoosterFunCutoff is the named cutoff date for "booster-fun" printings:
// Throne of Eldraine, released 2019-10-04. No code in this build reads
// it; baseSetSize and totalSetSize are taken as-is from the set-metadata
// source, with no booster-fun adjustment.
var BoosterFunCutoff = time.Date(2019, time.October, 4, 0, 0, 0, 0, time.UTC)

// Config is the immutable, build-wide configuration. It is constructed
// once by Load and then passed by value into the cache, pipeline, and
// price contexts — nothing reads viper globals after Load returns.
type Config struct {
	// CacheRoot is where Source Cache and pipeline partitions live on disk.
	CacheRoot string

	// OutputRoot overrides the output root (<PREFIX>_OUTPUT_PATH).
	OutputRoot string

	// Debug raises log verbosity (<PREFIX>_DEBUG).
	Debug bool

	// OfflineMode skips the pipeline and re-assembles from the most
	// recent cached partitions (<PREFIX>_OFFLINE_MODE, or --offline).
	OfflineMode bool

	// ResumeBuild skips writing an output file that already exists
	// instead of treating it as a conflict (--resume-build).
	ResumeBuild bool

	// CheckpointJoinThreshold is the number of new joins that triggers a
	// checkpoint: more than this many joins, or any self-join, since the
	// last reset.
	CheckpointJoinThreshold int

	// PriceRetentionDays is the rolling local price-archive window.
	PriceRetentionDays int

	// ObjectStoreBucket is the destination for the price-archive mirror.
	ObjectStoreBucket string

	// SetWriterConcurrency bounds the per-set file writer pool.
	SetWriterConcurrency int

	// SourceFetchConcurrency bounds the Source Cache's download pool.
	SourceFetchConcurrency int

	// ObjectStoreSyncConcurrency bounds the partition-upload pool.
	ObjectStoreSyncConcurrency int
}

// Load builds a Config from environment variables under EnvPrefix, with
// defaults named explicitly rather than left to be inferred.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("cache_path", "cache")
	v.SetDefault("output_path", "output")
	v.SetDefault("debug", false)
	v.SetDefault("offline_mode", false)
	v.SetDefault("resume_build", false)
	v.SetDefault("checkpoint_join_threshold", 3)
	v.SetDefault("price_retention_days", 90)
	v.SetDefault("object_store_bucket", "")
	v.SetDefault("set_writer_concurrency", 30)
	v.SetDefault("source_fetch_concurrency", 10)
	v.SetDefault("object_store_sync_concurrency", 16)

	return Config{
		CacheRoot:                  v.GetString("cache_path"),
		OutputRoot:                 v.GetString("output_path"),
		Debug:                      v.GetBool("debug"),
		OfflineMode:                v.GetBool("offline_mode"),
		ResumeBuild:                v.GetBool("resume_build"),
		CheckpointJoinThreshold:    v.GetInt("checkpoint_join_threshold"),
		PriceRetentionDays:         v.GetInt("price_retention_days"),
		ObjectStoreBucket:          v.GetString("object_store_bucket"),
		SetWriterConcurrency:       v.GetInt("set_writer_concurrency"),
		SourceFetchConcurrency:     v.GetInt("source_fetch_concurrency"),
		ObjectStoreSyncConcurrency: v.GetInt("object_store_sync_concurrency"),
	}, nil
}
