// Package reshard moves an Elasticsearch index onto a new shard count while
// keeping the name clients use stable.
//
// A reshard runs six ordered steps against the cluster:
//
//  1. fetch   read the index configuration and statistics
//  2. plan    pick a replacement name, replica count, slices and timeouts
//  3. create  create the replacement and wait for its shards
//  4. reindex copy every document into the replacement
//  5. repoint delete the source, then bind the name to the replacement
//  6. compact force-merge the replacement to one segment (best-effort)
//
// The cluster offers no atomicity across these calls. Between the delete
// and the alias bind of step 5 the name resolves to nothing. A failure from
// step 3 on is reported as a *PartialWorkflowError naming the replacement,
// and nothing is rolled back.
package reshard
