package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sasayosh1/prorenata-sub004/internal/assets"
	"github.com/sasayosh1/prorenata-sub004/internal/claim"
	"github.com/sasayosh1/prorenata-sub004/internal/config"
	"github.com/sasayosh1/prorenata-sub004/internal/coordinator"
	"github.com/sasayosh1/prorenata-sub004/internal/doc"
	"github.com/sasayosh1/prorenata-sub004/internal/search"
	"github.com/sasayosh1/prorenata-sub004/internal/snapshot"
	"github.com/sasayosh1/prorenata-sub004/internal/store"
	"github.com/sasayosh1/prorenata-sub004/internal/transform"
	"github.com/sasayosh1/prorenata-sub004/internal/validate"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type snapshotAdapter struct {
	svc *snapshot.Service
}

func (a snapshotAdapter) Save(d doc.Document, author, message string) error {
	_, err := a.svc.Save(d, author, message)
	return err
}

func main() {
	var (
		ids       stringList
		replaces  stringList
		all       = flag.Bool("all", false, "select every published post")
		drafts    = flag.Bool("drafts", false, "include drafts in selection")
		titleLike = flag.String("title-contains", "", "select posts whose title contains the given text")
		slug      = flag.String("slug", "", "select the post with the given slug")

		repairHrefs  = flag.Bool("repair-hrefs", false, "extract bare URLs from links whose href contains raw HTML")
		backfillKeys = flag.Bool("backfill-keys", false, "assign fresh keys to nodes, spans and mark definitions missing one")
		collapseDups = flag.Bool("collapse-dups", false, "collapse adjacent structurally identical embeds")

		uploadAsset = flag.String("upload-asset", "", "upload a file to the asset store and stamp an image embed into the selected documents")
		embedAfter  = flag.String("embed-after", "", "place the uploaded embed after the first block containing this text (default append at end)")
		embedAlt    = flag.String("embed-alt", "", "alt text for the uploaded embed")

		check   = flag.Bool("check", false, "run integrity checks only, no transformation")
		query   = flag.String("search", "", "search the corpus and print ranked hits")
		reindex = flag.Bool("reindex", false, "push the whole corpus into the search index and exit")
		history = flag.Bool("history", false, "list snapshot commits for the selected documents")

		apply   = flag.Bool("apply", false, "write changes (default is dry-run)")
		workers = flag.Int("workers", 0, "worker pool size (default from PTENGINE_WORKERS)")
	)
	flag.Var(&ids, "id", "document id to process (repeatable)")
	flag.Var(&replaces, "replace", "rewrite text, format old=new (repeatable)")
	flag.Parse()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()
	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	dataStore := store.NewPostgres(db)

	if *query != "" {
		runSearch(ctx, cfg, dataStore, *query)
		return
	}
	if *reindex {
		runReindex(ctx, cfg, dataStore)
		return
	}

	targets, err := selectTargets(ctx, dataStore, ids, *all, *drafts, *titleLike, *slug)
	if err != nil {
		log.Fatalf("document selection failed: %v", err)
	}
	if len(targets) == 0 {
		log.Fatal("no documents selected; pass -id, -all, -title-contains or -slug")
	}

	if *check {
		os.Exit(runCheck(ctx, dataStore, targets))
	}
	if *history {
		runHistory(cfg, targets)
		return
	}

	ops, opNames := buildPipeline(*repairHrefs, *backfillKeys, *collapseDups, replaces)
	if *uploadAsset != "" {
		op, err := buildAssetOp(ctx, cfg, *uploadAsset, *embedAfter, *embedAlt, *apply)
		if err != nil {
			log.Fatalf("asset upload failed: %v", err)
		}
		ops = append(ops, op)
		opNames = append(opNames, "upload-asset")
	}
	if len(ops) == 0 {
		log.Fatal("no operation selected; pass -repair-hrefs, -backfill-keys, -collapse-dups, -replace or -upload-asset")
	}
	fn := transform.Compose(ops...)

	runner := coordinator.Runner{
		Store:   dataStore,
		Workers: pick(*workers, cfg.Workers),
		DryRun:  !*apply,
	}
	if cfg.RedisURL != "" {
		registry, err := claim.NewRegistry(cfg.RedisURL, cfg.ClaimTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer registry.Close()
		runner.Claimer = registry
	}
	if *apply {
		if err := os.MkdirAll(cfg.SnapshotsDir, 0o755); err != nil {
			log.Fatalf("failed to create snapshots dir: %v", err)
		}
		runner.Snapshotter = snapshotAdapter{svc: snapshot.New(cfg.SnapshotsDir)}
	}

	mode := "dry-run"
	if *apply {
		mode = "apply"
	}
	log.Printf("ptengine: %s %s over %d documents", mode, strings.Join(opNames, "+"), len(targets))

	report := runner.Run(ctx, targets, fn)
	printReport(report)

	if !*apply {
		return
	}
	if report.Count(coordinator.OutcomeCommitted) > 0 && cfg.MeiliURL != "" {
		meiliClient := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		if err := search.NewService(meiliClient, dataStore).ReindexAll(ctx); err != nil {
			log.Printf("search: reindex after apply failed: %v", err)
		}
		meiliClient.Close()
	}
	if report.Count(coordinator.OutcomeError) > 0 || report.Count(coordinator.OutcomeConflict) > 0 {
		os.Exit(1)
	}
}

func selectTargets(ctx context.Context, st store.Store, ids stringList, all, drafts bool, titleLike, slug string) ([]string, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	if !all && titleLike == "" && slug == "" {
		return nil, nil
	}
	f := store.Filter{Type: "post", IncludeDrafts: drafts, TitleContains: titleLike, SlugEquals: slug}
	docs, err := st.FetchByQuery(ctx, f)
	if err != nil {
		return nil, err
	}
	targets := make([]string, 0, len(docs))
	for _, d := range docs {
		targets = append(targets, d.ID)
	}
	return targets, nil
}

func buildPipeline(repairHrefs, backfillKeys, collapseDups bool, replaces stringList) ([]transform.Op, []string) {
	var ops []transform.Op
	var names []string
	if backfillKeys {
		ops = append(ops, transform.BackfillKeys())
		names = append(names, "backfill-keys")
	}
	if repairHrefs {
		ops = append(ops, transform.RepairHrefs())
		names = append(names, "repair-hrefs")
	}
	if collapseDups {
		ops = append(ops, transform.CollapseDuplicates())
		names = append(names, "collapse-dups")
	}
	for _, spec := range replaces {
		old, new, ok := strings.Cut(spec, "=")
		if !ok || old == "" {
			log.Fatalf("malformed -replace %q, want old=new", spec)
		}
		ops = append(ops, transform.RewriteText(old, new))
		names = append(names, "replace")
	}
	return ops, names
}

// buildAssetOp uploads the file and returns an op stamping an image embed
// referencing it. Uploads only happen under -apply; a dry run uses a
// placeholder reference so the report still shows what would be inserted.
func buildAssetOp(ctx context.Context, cfg config.Config, path, after, alt string, apply bool) (transform.Op, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT not configured")
	}
	ref := assets.Ref(fmt.Sprintf("asset://%s/%s (dry-run, not uploaded)", cfg.MinioBucket, filepath.Base(path)))
	if apply {
		st, err := assets.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ref, err = st.Upload(ctx, filepath.Base(path), f, info.Size(), contentType)
		if err != nil {
			return nil, err
		}
		log.Printf("assets: uploaded %s as %s", path, ref)
	}

	anchor := doc.Anchor{}
	if after != "" {
		anchor = doc.ByTextContains(after)
	}
	return transform.InsertNodes(anchor, doc.After, []doc.Node{assets.ImageEmbed(ref, alt)}), nil
}

func runHistory(cfg config.Config, targets []string) {
	svc := snapshot.New(cfg.SnapshotsDir)
	for _, id := range targets {
		commits, err := svc.History(id, 20)
		if err != nil {
			fmt.Printf("%s\tno snapshots (%v)\n", id, err)
			continue
		}
		for _, c := range commits {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
				id, c.Hash, c.CreatedAt.Format("2006-01-02 15:04:05"), c.Author, strings.TrimSpace(c.Message))
		}
	}
}

func runReindex(ctx context.Context, cfg config.Config, st store.Store) {
	if cfg.MeiliURL == "" {
		log.Fatal("MEILI_URL not configured; nothing to index")
	}
	meiliClient := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	defer meiliClient.Close()
	svc := search.NewService(meiliClient, st)
	if err := svc.ReindexAll(ctx); err != nil {
		log.Fatalf("reindex failed: %v", err)
	}
}

func runCheck(ctx context.Context, st store.Store, targets []string) int {
	exit := 0
	var corpus []doc.Document
	for _, id := range targets {
		d, err := st.FetchByID(ctx, id)
		if err != nil {
			fmt.Printf("%s\tERROR\t%v\n", id, err)
			exit = 1
			continue
		}
		corpus = append(corpus, d)
		report := validate.Check(d)
		if report.Clean() {
			fmt.Printf("%s\tok\n", id)
			continue
		}
		for _, f := range report.Findings {
			fmt.Printf("%s\t%s\t%s\t%s\n", id, f.Kind, f.NodeKey, f.Detail)
			if f.Kind.Fatal() {
				exit = 1
			}
		}
	}
	for _, f := range validate.CheckCorpus(corpus) {
		fmt.Printf("%s\t%s\t%s\n", f.DocumentID, f.Kind, f.Detail)
	}
	return exit
}

func runSearch(ctx context.Context, cfg config.Config, st store.Store, query string) {
	var meiliClient *search.Meili
	if cfg.MeiliURL != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	svc := search.NewService(meiliClient, st)
	resp := svc.Search(ctx, search.Query{Text: query, Limit: 20})
	for i, hit := range resp.Results {
		fmt.Printf("%2d. %s\t%s\n    %s\n", i+1, hit.ID, hit.Title, hit.Snippet)
	}
	if len(resp.Results) == 0 {
		fmt.Println("no hits")
	}
}

func printReport(report coordinator.BatchReport) {
	for _, item := range report.Items {
		line := fmt.Sprintf("%s\t%s", item.DocumentID, item.Outcome)
		if item.Err != nil {
			line += "\t" + item.Err.Error()
		}
		fmt.Println(line)
		for _, note := range item.Notes {
			if note.Changed {
				fmt.Printf("\t%s\n", note)
			}
		}
	}
	fmt.Printf("committed=%d dry-run=%d no-change=%d locked=%d conflicts=%d errors=%d\n",
		report.Count(coordinator.OutcomeCommitted),
		report.Count(coordinator.OutcomeDryRun),
		report.Count(coordinator.OutcomeSkippedNoOp),
		report.Count(coordinator.OutcomeSkippedLocked),
		report.Count(coordinator.OutcomeConflict),
		report.Count(coordinator.OutcomeError),
	)
}

func pick(flagValue, cfgValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return cfgValue
}
