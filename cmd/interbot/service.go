package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"interbot/pkg/config"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage interbot as a system service",
	Long: `Install and control interbot as a system service:
- Linux: systemd
- macOS: launchd
- Windows: Windows Service Manager

Requires administrator/root privileges.`,
}

// serviceActions maps subcommands to control functions.
var serviceActions = []struct {
	name  string
	short string
	run   func(service.Service) error
	done  string
}{
	{"install", "Install interbot as a system service", func(s service.Service) error { return s.Install() }, "Service installed successfully!"},
	{"uninstall", "Uninstall the interbot service", func(s service.Service) error { return s.Uninstall() }, "Service uninstalled successfully!"},
	{"start", "Start the interbot service", func(s service.Service) error { return s.Start() }, "Service started successfully!"},
	{"stop", "Stop the interbot service", func(s service.Service) error { return s.Stop() }, "Service stopped successfully!"},
	{"restart", "Restart the interbot service", func(s service.Service) error { return s.Restart() }, "Service restarted successfully!"},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the interbot service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newService(NewBotService())
		if err != nil {
			return err
		}
		st, err := s.Status()
		if err != nil {
			return fmt.Errorf("getting service status: %w", err)
		}
		fmt.Printf("Service Status: %s\n", statusName(st))
		return nil
	},
}

func init() {
	for _, action := range serviceActions {
		action := action
		serviceCmd.AddCommand(&cobra.Command{
			Use:   action.name,
			Short: action.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := newService(NewBotService())
				if err != nil {
					return err
				}
				if err := action.run(s); err != nil {
					fmt.Fprintln(os.Stderr, "Note: managing system services requires administrator privileges.")
					return fmt.Errorf("%s service: %w", action.name, err)
				}
				fmt.Println(action.done)
				return nil
			},
		})
	}
	serviceCmd.AddCommand(serviceStatusCmd)
	rootCmd.AddCommand(serviceCmd)
}

func statusName(st service.Status) string {
	switch st {
	case service.StatusRunning:
		return "Running"
	case service.StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// BotService implements service.Interface.
type BotService struct {
	app    *fx.App
	logger service.Logger
}

// NewBotService creates a service wrapper.
func NewBotService() *BotService {
	return &BotService{}
}

// Start implements service.Interface.
func (s *BotService) Start(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Starting interbot service")
	}
	s.app = newApp(fx.NopLogger)
	if err := s.app.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.app.Start(ctx)
}

// Stop implements service.Interface.
func (s *BotService) Stop(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Stopping interbot service")
	}
	if s.app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.app.Stop(ctx); err != nil {
		if s.logger != nil {
			s.logger.Errorf("Error stopping service: %v", err)
		}
		return err
	}
	return nil
}

// ServiceConfig returns the service definition. The config path is pinned so
// the service reads the same file as the installing shell.
func ServiceConfig() *service.Config {
	args := []string{"run"}
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
	}
	if path != "" {
		args = append([]string{"-c", path}, args...)
	}
	return &service.Config{
		Name:        "interbot",
		DisplayName: "interbot",
		Description: "Discord slash command bot",
		Arguments:   args,
	}
}

func newService(prg *BotService) (service.Service, error) {
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	return s, nil
}

// RunService runs under the service manager until it asks us to stop.
func RunService() error {
	prg := NewBotService()
	s, err := newService(prg)
	if err != nil {
		return err
	}
	logger, err := s.Logger(nil)
	if err != nil {
		return fmt.Errorf("creating service logger: %w", err)
	}
	prg.logger = logger

	if err := s.Run(); err != nil {
		logger.Error(err)
		return err
	}
	return nil
}
