package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjb1001/ganttGraph/internal/config"
	internal_http "github.com/zjb1001/ganttGraph/internal/http"
	"github.com/zjb1001/ganttGraph/internal/log"
	internal_storage "github.com/zjb1001/ganttGraph/internal/storage"
	"github.com/zjb1001/ganttGraph/pkg/service"
	"github.com/zjb1001/ganttGraph/pkg/storage"
)

func SetupCLI(rootCmd *cobra.Command) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GanttGraph HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = cfg.Address
			}
			store := initStore(cmd)
			defer store.Close()
			if err := internal_http.StartServer(addr, store); err != nil {
				log.GetLogger().Errorf("Server failed: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("addr", "", "Listen address (defaults to config)")

	createProjectCmd := &cobra.Command{
		Use:   "create-project [name]",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			p, err := svc.CreateProject(args[0])
			if err != nil {
				log.GetLogger().Errorf("Failed to create project: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to create project: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Created project '%s' with ID %s\n", p.Name, p.ID)
		},
	}

	listProjectsCmd := &cobra.Command{
		Use:   "list-projects",
		Short: "List all projects",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			projects, err := svc.ListProjects()
			if err != nil {
				log.GetLogger().Errorf("Failed to list projects: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to list projects: %v\n", err)
				os.Exit(1)
			}
			if len(projects) == 0 {
				fmt.Fprintf(os.Stdout, "No projects found.\n")
				return
			}
			fmt.Fprintf(os.Stdout, "Projects:\n")
			for _, p := range projects {
				fmt.Fprintf(os.Stdout, "- ID: %s, Name: %s, Created: %s\n",
					p.ID, p.Name, p.CreatedAt.Format(time.RFC3339))
			}
		},
	}

	listTasksCmd := &cobra.Command{
		Use:   "list-tasks",
		Short: "List the tasks of a project with their edge violations",
		Run: func(cmd *cobra.Command, args []string) {
			projectID, _ := cmd.Flags().GetString("project")
			if projectID == "" {
				fmt.Fprintln(os.Stderr, "Error: --project is required")
				os.Exit(1)
			}
			store := initStore(cmd)
			defer store.Close()
			svc := service.NewTaskService(store, log.GetLogger())
			tasks, err := svc.ListTasks(projectID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to list tasks: %v\n", err)
				os.Exit(1)
			}
			statuses, err := svc.EvaluateProject(projectID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to evaluate dependencies: %v\n", err)
				os.Exit(1)
			}
			violated := make(map[string]int)
			for _, st := range statuses {
				if st.Violated {
					violated[st.SuccessorID] += st.DelayDays
				}
			}
			for _, t := range tasks {
				line := fmt.Sprintf("- [%s] %s: %s -> %s", t.Type, t.Name,
					t.Start.Format("2006-01-02"), t.Due.Format("2006-01-02"))
				if delay, ok := violated[t.ID]; ok {
					line += fmt.Sprintf(" (violates dependencies, needs %d more days)", delay)
				}
				fmt.Fprintln(os.Stdout, line)
			}
		},
	}
	listTasksCmd.Flags().String("project", "", "Project ID")

	rootCmd.AddCommand(serveCmd, createProjectCmd, listProjectsCmd, listTasksCmd)
}

func loadConfig(cmd *cobra.Command) config.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		log.GetLogger().Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}
	return cfg
}

// initStore opens the Postgres gateway when a connection string is
// configured, otherwise an in-memory store (useful for serve with
// throwaway data).
func initStore(cmd *cobra.Command) storage.Store {
	dbConnStr, err := cmd.Flags().GetString("db")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving db flag: %v", err)
		os.Exit(1)
	}
	if dbConnStr == "" {
		dbConnStr = loadConfig(cmd).DBConn
	}
	if dbConnStr == "" {
		log.GetLogger().Warnf("No --db given, using an in-memory store")
		return storage.NewMockStore()
	}
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
