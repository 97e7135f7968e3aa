// Package itemsearch embeds the item search engine in a Go program without
// running the HTTP server.
//
// The client talks to the same stores as the service: Postgres with pgvector,
// or Redis/Valkey with the search module.
//
//	client, _ := itemsearch.New(ctx,
//	    itemsearch.WithPostgres("postgres://localhost/app?sslmode=disable"),
//	    itemsearch.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "", ""),
//	)
//	defer client.Close()
//
//	_ = client.EmbedItem(ctx, itemsearch.Item{ID: id, Title: "Oat milk", Category: "dairy"})
//	hits, _ := client.Search(ctx, userID, "something for coffee",
//	    itemsearch.WithTopK(5), itemsearch.WithCategory("dairy"))
//
// Regenerate re-embeds the whole catalog in paced batches and reports
// per-item failures instead of aborting.
package itemsearch
