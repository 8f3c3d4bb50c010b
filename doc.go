// Package sitesync deploys a built static site to an S3 bucket.
//
// A deployment reconciles a local directory against a bucket prefix. Both
// sides are scanned, matched by key and classified into actions (Create,
// Update, Delete, Unchanged, Ignore, Unknown). Each uploaded key gets a
// cache-control value from the target's rules, and keys that must be
// revalidated are collected into a CloudFront invalidation list.
//
// Example usage:
//
//	client, err := sitesync.New(ctx, sitesync.WithRegion("eu-central-1"))
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Deploy(ctx, &sitesync.DeployTarget{
//	    Name:           "web",
//	    LocalPath:      "/src/app/dist",
//	    Bucket:         "my-site",
//	    Purge:          true,
//	    InvalidateGlob: []string{"**/*.html"},
//	}, sitesync.WithDryRun(true))
//	if err != nil {
//	    return err
//	}
//	for _, path := range result.Invalidations {
//	    fmt.Println(path)
//	}
package sitesync
