package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/mcp-podfs/internal/aks"
)

// aksOptions holds the flags shared by the aks subcommands.
type aksOptions struct {
	ResourceID     string
	SubscriptionID string
	ResourceGroup  string
	Name           string
	DebugMode      bool
}

// newAKSClient and newPeriscope build the Azure clients. Tests replace them.
var (
	newAKSClient = func(opts ...aks.Option) (*aks.Client, error) {
		return aks.NewClient(nil, opts...)
	}
	newPeriscope = func(account string, opts ...aks.Option) (*aks.Periscope, error) {
		return aks.NewPeriscope(account, nil, opts...)
	}
)

// newAKSCmd creates the command group for Azure Kubernetes Service clusters.
func newAKSCmd() *cobra.Command {
	opts := &aksOptions{}

	cmd := &cobra.Command{
		Use:   "aks",
		Short: "Fetch AKS cluster credentials and diagnostic logs",
		Long: `Fetch AKS cluster credentials and the diagnostic logs periscope collected
for a cluster.

Clusters are selected with --resource-id, or with --subscription,
--resource-group and --name. Azure credentials come from the environment,
workload or managed identity, or the Azure CLI login.`,
	}

	cmd.PersistentFlags().StringVar(&opts.ResourceID, "resource-id", "", "ARM resource id of the managed cluster")
	cmd.PersistentFlags().StringVar(&opts.SubscriptionID, "subscription", "", "Subscription of the cluster (default: $AZURE_SUBSCRIPTION_ID)")
	cmd.PersistentFlags().StringVarP(&opts.ResourceGroup, "resource-group", "g", "", "Resource group of the cluster")
	cmd.PersistentFlags().StringVar(&opts.Name, "name", "", "Name of the cluster")
	cmd.PersistentFlags().BoolVar(&opts.DebugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newAKSCredentialsCmd(opts), newAKSPeriscopeCmd(opts))
	return cmd
}

// clusterID resolves the cluster from the flags.
func (o *aksOptions) clusterID() (aks.ClusterID, error) {
	if o.ResourceID != "" {
		return aks.ParseClusterID(o.ResourceID)
	}
	loadEnvIfEmpty(&o.SubscriptionID, "AZURE_SUBSCRIPTION_ID")
	if o.SubscriptionID == "" || o.ResourceGroup == "" || o.Name == "" {
		return aks.ClusterID{}, fmt.Errorf("either --resource-id or --subscription, --resource-group and --name are required")
	}
	return aks.ParseClusterID(aks.ClusterID{
		SubscriptionID: o.SubscriptionID,
		ResourceGroup:  o.ResourceGroup,
		Name:           o.Name,
	}.String())
}

func (o *aksOptions) clientOptions(stderr io.Writer) []aks.Option {
	return []aks.Option{aks.WithLogger(newLogger(stderr, o.DebugMode))}
}

func newAKSCredentialsCmd(opts *aksOptions) *cobra.Command {
	var (
		admin      bool
		printOnly  bool
		kubeconfig string
		setCurrent bool
	)

	cmd := &cobra.Command{
		Use:   "get-credentials",
		Short: "Merge the kubeconfig of an AKS cluster into a local kubeconfig",
		Long: `Fetch the clusterUser kubeconfig of an AKS cluster, or the clusterAdmin
kubeconfig with --admin, and merge it into the local kubeconfig. With --print
the kubeconfig is written to stdout instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := opts.clusterID()
			if err != nil {
				return err
			}
			client, err := newAKSClient(opts.clientOptions(cmd.ErrOrStderr())...)
			if err != nil {
				return err
			}

			kind := aks.CredentialUser
			if admin {
				kind = aks.CredentialAdmin
			}
			data, err := client.Kubeconfig(cmd.Context(), id.String(), kind)
			if err != nil {
				return fmt.Errorf("can't get kubeconfig: %w", err)
			}

			if printOnly {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if kubeconfig == "" {
				kubeconfig = clientcmd.NewDefaultPathOptions().GetDefaultFilename()
			}
			contextName, err := aks.MergeKubeconfig(kubeconfig, data, setCurrent)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Merged %q as context %q in %s\n", id.Name, contextName, kubeconfig)
			return nil
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "Fetch the cluster admin kubeconfig")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the kubeconfig instead of merging it")
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "Kubeconfig file to merge into (default: $KUBECONFIG or ~/.kube/config)")
	cmd.Flags().BoolVar(&setCurrent, "set-current", true, "Make the cluster the current context")
	return cmd
}

func newAKSPeriscopeCmd(opts *aksOptions) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "periscope",
		Short: "List and download the diagnostic logs periscope collected for a cluster",
	}
	cmd.PersistentFlags().StringVar(&account, "storage-account", "", "Storage account periscope uploads to (default: $PERISCOPE_STORAGE_ACCOUNT)")

	setup := func(cmd *cobra.Command) (aks.ClusterID, *aks.Periscope, error) {
		id, err := opts.clusterID()
		if err != nil {
			return aks.ClusterID{}, nil, err
		}
		loadEnvIfEmpty(&account, "PERISCOPE_STORAGE_ACCOUNT")
		p, err := newPeriscope(account, opts.clientOptions(cmd.ErrOrStderr())...)
		return id, p, err
	}

	var (
		run    string
		format string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List collected log files, newest run first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, p, err := setup(cmd)
			if err != nil {
				return err
			}
			blobs, err := p.ListLogs(cmd.Context(), id, run)
			if err != nil {
				return err
			}
			return printBlobs(cmd.OutOrStdout(), format, blobs)
		},
	}
	list.Flags().StringVar(&run, "run", "", "Only list the files of one collection run")
	list.Flags().StringVarP(&format, "output", "o", outputText, "Output format: text, json or yaml")

	var dest string
	download := &cobra.Command{
		Use:   "download BLOB",
		Short: "Download one collected log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, p, err := setup(cmd)
			if err != nil {
				return err
			}

			if dest == "-" {
				_, err = p.Download(cmd.Context(), id, args[0], cmd.OutOrStdout())
				return err
			}
			if dest == "" {
				dest = path.Base(args[0])
			}
			n, err := downloadToFile(cmd.Context(), p, id, args[0], dest)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", n, dest)
			return nil
		},
	}
	download.Flags().StringVar(&dest, "dest", "", "Destination file, - for stdout (default: the blob's base name)")

	cmd.AddCommand(list, download)
	return cmd
}

func printBlobs(w io.Writer, format string, blobs []aks.LogBlob) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(blobs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(blobs)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case outputText:
	default:
		return fmt.Errorf("unsupported output format %q (supported: text, json, yaml)", format)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSIZE\tNAME")
	for _, b := range blobs {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Run, b.Size, b.Name)
	}
	return tw.Flush()
}

// downloadToFile writes blob to dest. A failed download or close removes the
// partial file.
func downloadToFile(ctx context.Context, p *aks.Periscope, id aks.ClusterID, blob, dest string) (n int64, err error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to write %s: %w", dest, closeErr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()
	return p.Download(ctx, id, blob, f)
}
