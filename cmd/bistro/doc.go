// Command bistro runs the ordering backend and its maintenance tasks.
//
//	bistro serve             # HTTP + gRPC + queue workers + sweep scheduler
//	bistro queue:work        # queue workers only
//	bistro reconcile         # one reconciliation sweep, then exit
//	bistro migrate           # run migrations
//	bistro migrate:rollback
//	bistro migrate:status
//	bistro seed              # sample menu and reviews
//	bistro route:list        # list API routes
package main
