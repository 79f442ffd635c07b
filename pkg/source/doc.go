// Package source provides ballot sources for audits.
//
// Every source implements [audit.Source] and [audit.Seeker]. Sources over a
// known set of ballots shuffle it once with the audit seed and then hand
// ballots out from the front, so a resumed audit that seeks past the drawn
// ballots continues with exactly the ballots an uninterrupted audit would
// have drawn.
//
//   - [Pool] draws from ballots held in memory.
//   - [OpenFile] loads a JSON lines ballot file into a Pool.
//   - [SQL] draws from a ballot box table in SQLite or PostgreSQL.
package source
