// Package scanner produces the two inventories the planner reconciles.
//
// LocalScanner walks a build directory and yields one LocalFile per regular
// file, hashing contents as it goes. RemoteLister pages through a bucket and
// yields one RemoteObject per stored key. Both are lazy: nothing is read until
// the returned sequence is ranged over, and each range restarts the work.
package scanner
