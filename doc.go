// Package unifier provides a Go client for the Unifier data API.
// It covers the query surface (records, tabular frames, snapshot-date
// discovery) and dataset replication into a local directory over
// S3-compatible object storage.
//
// Replication acquires scoped, time-limited storage credentials from the
// service and then transfers the dataset either through an external sync
// tool (rclone, when installed) or through the client's own bounded-parallel
// download path with ranged multipart fetches for large objects.
//
// Key features:
//   - Functional options for configuration, with environment loading support
//   - Server-driven folder filters applied to both transfer paths
//   - Two-tier download concurrency: across files and across byte ranges
//   - Typed errors for auth, protocol, network, tool, and transfer failures
//   - Progress callbacks during native transfers
//
// Example usage:
//
//	client, err := unifier.NewFromEnv()
//	if err != nil {
//	    return err
//	}
//
//	// Replicate a dataset into a local directory
//	outcome, err := client.Replicate(ctx, &unifiertypes.ReplicationRequest{
//	    Name:      "prices",
//	    TargetDir: "/data/prices",
//	})
//	if err != nil {
//	    return err
//	}
package unifier
