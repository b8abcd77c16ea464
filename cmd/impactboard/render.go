package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/impactboard/impactboard-go/internal/policy"
	"github.com/impactboard/impactboard-go/internal/render"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [owner/repo]",
	Short: "Run a rendering pass for an installed org repository",
	Long: `Loads the org policy, regenerates SVG assets, resolves README
placeholders, and commits the results back to the repository.

With --file, resolves a local document against the stored statistics and
prints the result instead of touching GitHub.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().Int64("org", 0, "organization ID")
	renderCmd.Flags().Int64("installation", 0, "installation ID")
	renderCmd.Flags().String("org-login", "", "organization login")
	renderCmd.Flags().String("file", "", "resolve a local file and print to stdout")
	renderCmd.Flags().String("policy", "", "local policy file (only with --file)")
	renderCmd.MarkFlagRequired("org")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orgID, _ := cmd.Flags().GetInt64("org")
	orgLogin, _ := cmd.Flags().GetString("org-login")
	localFile, _ := cmd.Flags().GetString("file")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc := newRenderService(store)

	if localFile != "" {
		return renderLocal(ctx, cmd, svc, orgID, orgLogin, localFile)
	}

	if len(args) != 1 || !strings.Contains(args[0], "/") {
		return fmt.Errorf("expected owner/repo argument")
	}
	owner, repo, _ := strings.Cut(args[0], "/")
	installationID, _ := cmd.Flags().GetInt64("installation")

	return svc.Run(ctx, render.Target{
		InstallationID: installationID,
		OrgID:          orgID,
		OrgLogin:       orgLogin,
		Owner:          owner,
		Repo:           repo,
	})
}

func renderLocal(ctx context.Context, cmd *cobra.Command, svc *render.Service, orgID int64, orgLogin, path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	pol := policy.Default()
	if policyPath, _ := cmd.Flags().GetString("policy"); policyPath != "" {
		pol, err = policy.LoadFile(policyPath)
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
	}

	out, err := svc.RenderText(ctx, orgID, orgLogin, string(text), pol)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}
