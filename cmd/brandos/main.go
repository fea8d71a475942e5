package main

import (
	"brandos/internal/assistant"
	"brandos/internal/config"
	"brandos/internal/events"
	"brandos/internal/gemini"
	"brandos/internal/logging"
	"brandos/internal/pipeline"
	"brandos/internal/profile"
	"brandos/internal/sitedoc"
	"brandos/internal/store"
	"brandos/internal/types"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	tenantID   string

	// Logger
	logger *zap.Logger
)

// app wires the core services for one command invocation.
type app struct {
	cfg       *config.Config
	store     *store.LocalStore
	bus       *events.Bus
	client    *gemini.Client
	profiles  *profile.Service
	sites     *sitedoc.Manager
	assistant *assistant.Assistant
	pipeline  *pipeline.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logging.Initialize(filepath.Dir(cfg.Storage.DatabasePath), logging.Options{
		DebugMode:  verbose || cfg.Logging.DebugMode,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("brandos %s starting: model=%s db=%s", cfg.Version, cfg.LLM.Model, cfg.Storage.DatabasePath)

	st, err := store.NewLocalStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}

	client := gemini.NewClient(gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.RequestTimeout(),
		Temperature: cfg.LLM.Temperature,
		TopK:        cfg.LLM.TopK,
		TopP:        cfg.LLM.TopP,
	})

	bus := events.New()
	profiles := profile.NewService(st, bus)
	sites := sitedoc.NewManager(st, bus)

	return &app{
		cfg:       cfg,
		store:     st,
		bus:       bus,
		client:    client,
		profiles:  profiles,
		sites:     sites,
		assistant: assistant.New(client, st, profiles, sites, bus),
		pipeline:  pipeline.NewService(client, st, profiles, bus),
	}, nil
}

func (a *app) close() {
	a.store.Close()
	logging.CloseAll()
}

var rootCmd = &cobra.Command{
	Use:   "brandos",
	Short: "BrandOS - AI brand assistant and site builder",
	Long: `BrandOS is a multi-tenant brand assistant: it answers from your own
brand knowledge, researches the market with cited sources, builds and
edits your website through conversation, and synthesizes a scheduled
content pipeline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message to the brand assistant",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the tenant's conversation history",
	RunE:  runHistory,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the tenant's conversation history",
	RunE:  runReset,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the tenant's onboarding profile",
}

var (
	profileCompany  string
	profileIndustry string
	profileVoice    string
	profileMission  string
	profileTagline  string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields (only provided flags change)",
	RunE:  runProfileSet,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the tenant's profile",
	RunE:  runProfileShow,
}

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Provision and edit websites",
}

var siteTemplate string

var siteProvisionCmd = &cobra.Command{
	Use:   "provision [name]",
	Short: "Provision a new staging site",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteProvision,
}

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's sites",
	RunE:  runSiteList,
}

var siteBuildCmd = &cobra.Command{
	Use:   "build [site-id] [instruction]",
	Short: "Edit a site through conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSiteBuild,
}

var siteRenderOut string

var siteRenderCmd = &cobra.Command{
	Use:   "render [site-id]",
	Short: "Render the site's current page to HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSiteRender,
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Manage the scheduled content pipeline",
}

var pipelineSynthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Synthesize a one-week content pipeline from the profile",
	RunE:  runPipelineSynthesize,
}

var pipelineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled posts",
	RunE:  runPipelineList,
}

var pipelineClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the scheduled pipeline",
	RunE:  runPipelineClear,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an enterprise intelligence report",
	RunE:  runReport,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "brandos.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&tenantID, "tenant", "t", "default", "Tenant ID")

	profileSetCmd.Flags().StringVar(&profileCompany, "company", "", "Company name")
	profileSetCmd.Flags().StringVar(&profileIndustry, "industry", "", "Industry")
	profileSetCmd.Flags().StringVar(&profileVoice, "voice", "", "Brand voice")
	profileSetCmd.Flags().StringVar(&profileMission, "mission", "", "Mission statement")
	profileSetCmd.Flags().StringVar(&profileTagline, "tagline", "", "Tagline")
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)

	siteProvisionCmd.Flags().StringVar(&siteTemplate, "template", string(sitedoc.TemplateEnterpriseBase), "Site template")
	siteRenderCmd.Flags().StringVar(&siteRenderOut, "out", "", "Write HTML to file instead of stdout")
	siteCmd.AddCommand(siteProvisionCmd)
	siteCmd.AddCommand(siteListCmd)
	siteCmd.AddCommand(siteBuildCmd)
	siteCmd.AddCommand(siteRenderCmd)

	pipelineCmd.AddCommand(pipelineSynthesizeCmd)
	pipelineCmd.AddCommand(pipelineListCmd)
	pipelineCmd.AddCommand(pipelineClearCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(siteCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	message := strings.Join(args, " ")
	reply, err := a.assistant.Chat(context.Background(), tenantID, message)
	if err != nil {
		return err
	}

	fmt.Println(reply.Text)
	if len(reply.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range reply.Citations {
			fmt.Printf("  - %s (%s)\n", c.Title, c.URI)
		}
	}
	logger.Debug("chat complete",
		zap.String("tenant", tenantID),
		zap.String("intent", string(reply.Intent)),
		zap.Bool("degraded", reply.Degraded))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	history, err := a.assistant.History(tenantID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("No conversation yet.")
		return nil
	}
	for _, turn := range history {
		label := "You"
		if turn.Role == types.RoleModel {
			label = "Assistant"
		}
		fmt.Printf("%s: %s\n", label, turn.Content)
		for _, c := range turn.Citations {
			fmt.Printf("    [%s] %s\n", c.Title, c.URI)
		}
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.assistant.ClearConversation(tenantID); err != nil {
		return err
	}
	fmt.Printf("Conversation cleared for tenant %s.\n", tenantID)
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	merged, err := a.profiles.Save(tenantID, &types.Profile{
		CompanyName: profileCompany,
		Industry:    profileIndustry,
		BrandVoice:  profileVoice,
		Mission:     profileMission,
		Tagline:     profileTagline,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Profile updated for %s.\n", merged.CompanyName)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	prof, err := a.profiles.Get(tenantID)
	if err != nil {
		return err
	}
	if prof == nil {
		fmt.Println("No profile yet. Use 'brandos profile set' to onboard.")
		return nil
	}
	fmt.Printf("Company:  %s\n", prof.CompanyName)
	fmt.Printf("Industry: %s\n", prof.Industry)
	if prof.BrandVoice != "" {
		fmt.Printf("Voice:    %s\n", prof.BrandVoice)
	}
	if prof.Mission != "" {
		fmt.Printf("Mission:  %s\n", prof.Mission)
	}
	if prof.Tagline != "" {
		fmt.Printf("Tagline:  %s\n", prof.Tagline)
	}
	for _, o := range prof.Offerings {
		fmt.Printf("Offering: %s (%s) - %s\n", o.Name, o.Type, o.Description)
	}
	return nil
}

func runSiteProvision(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	template, err := sitedoc.ParseTemplate(siteTemplate)
	if err != nil {
		return err
	}
	site, err := a.sites.Provision(tenantID, args[0], template)
	if err != nil {
		return err
	}
	fmt.Printf("Provisioned %q (%s)\n  id: %s\n  status: %s\n", site.Name, template, site.ID, site.Status)
	return nil
}

func runSiteList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sites, err := a.sites.List(tenantID)
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		fmt.Println("No sites provisioned.")
		return nil
	}
	for _, site := range sites {
		fmt.Printf("%s  %-24s %-10s %s (%d pages)\n",
			site.ID, site.Name, site.Status, site.Document.TemplateID, len(site.Document.Pages))
	}
	return nil
}

func runSiteBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	siteID := args[0]
	instruction := strings.Join(args[1:], " ")
	result, err := a.assistant.BuildSite(context.Background(), tenantID, siteID, instruction)
	if err != nil {
		return err
	}

	fmt.Println(result.Reply)
	if result.ActionsApplied > 0 {
		fmt.Printf("\n%d action(s) applied.\n", result.ActionsApplied)
	}
	return nil
}

func runSiteRender(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	site, err := a.sites.Load(tenantID, args[0])
	if err != nil {
		return err
	}
	if site == nil {
		return fmt.Errorf("site %s not found", args[0])
	}

	markup := sitedoc.RenderPage(site.Document, site.Document.ActivePageID)
	if siteRenderOut != "" {
		if err := os.WriteFile(siteRenderOut, []byte(markup), 0644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", siteRenderOut)
		return nil
	}
	fmt.Print(markup)
	return nil
}

func runPipelineSynthesize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	posts, err := a.pipeline.Synthesize(context.Background(), tenantID)
	if err != nil {
		return err
	}
	fmt.Printf("Synthesized %d post(s):\n", len(posts))
	printPosts(posts)
	return nil
}

func runPipelineList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	posts, err := a.pipeline.Posts(tenantID)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("Pipeline is empty.")
		return nil
	}
	printPosts(posts)
	return nil
}

func runPipelineClear(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.pipeline.ClearSchedule(tenantID); err != nil {
		return err
	}
	fmt.Println("Pipeline cleared.")
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println(a.pipeline.Report(context.Background(), tenantID))
	return nil
}

func printPosts(posts []store.ScheduledPost) {
	for _, post := range posts {
		fmt.Printf("  %s  %-10s %-30s %s\n",
			post.PublishAt.Format("2006-01-02"), post.Platform, post.Title, post.ContentSummary)
	}
}
