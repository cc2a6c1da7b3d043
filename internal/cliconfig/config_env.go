package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (XFERBENCH_*). It respects flags that have been explicitly set
// (changed map). Returns an error if any variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service-url", os.Getenv("XFERBENCH_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("strategy", os.Getenv("XFERBENCH_STRATEGY"), &cfg.Strategy)
	s.setString("source-db", os.Getenv("XFERBENCH_SOURCE_DB"), &cfg.SourceDB)
	s.setString("listen-addr", os.Getenv("XFERBENCH_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("receiver-db", os.Getenv("XFERBENCH_RECEIVER_DB"), &cfg.ReceiverDB)

	if err := s.setIntFromString("chunk-size", os.Getenv("XFERBENCH_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}
	if err := s.setIntFromString("sub-batch-size", os.Getenv("XFERBENCH_SUB_BATCH_SIZE"), &cfg.SubBatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("lanes", os.Getenv("XFERBENCH_LANES"), &cfg.Lanes); err != nil {
		return err
	}
	if err := s.setIntFromString("seed-count", os.Getenv("XFERBENCH_SEED_COUNT"), &cfg.SeedCount); err != nil {
		return err
	}

	if err := s.setDuration("request-timeout", os.Getenv("XFERBENCH_REQUEST_TIMEOUT"), &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := s.setDuration("chunk-wait-ceiling", os.Getenv("XFERBENCH_CHUNK_WAIT_CEILING"), &cfg.ChunkWaitCeiling); err != nil {
		return err
	}

	if err := s.setFloatFromString("reject-probability", os.Getenv("XFERBENCH_REJECT_PROBABILITY"), &cfg.RejectProbability); err != nil {
		return err
	}
	if err := s.setInt64FromString("reject-seed", os.Getenv("XFERBENCH_REJECT_SEED"), &cfg.RejectSeed); err != nil {
		return err
	}

	s.setBoolFromString("debug", os.Getenv("XFERBENCH_DEBUG"), &cfg.Debug)

	return nil
}
