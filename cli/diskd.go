package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/chanyoung/ecdisk/app/diskd"
	"github.com/chanyoung/ecdisk/pkg/util/config"
)

var diskdCfg config.Diskd

var diskdCmd = &cobra.Command{
	Use:   "diskd",
	Short: "diskd control commands",
	Long:  "diskd control commands",
	Run:   diskdRun,
}

func diskdRun(cmd *cobra.Command, args []string) {
	if err := diskd.Bootstrap(diskdCfg); err != nil {
		log.Fatal(err)
	}
}

func init() {
	diskdCmd.Flags().StringVarP(&diskdCfg.ServerAddr, "bind", "b", config.Get("diskd.addr"), "address to which the diskd will bind")
	diskdCmd.Flags().StringVarP(&diskdCfg.ServerPort, "port", "p", config.Get("diskd.port"), "port on which the diskd will listen")

	diskdCmd.Flags().StringVarP(&diskdCfg.Disks, "disks", "d", config.Get("diskd.disks"), "comma separated list of disk root directories")

	diskdCmd.Flags().StringVarP(&diskdCfg.Security.CertsDir, "secure-certs-dir", "", config.Get("security.certs_dir"), "directory path of secure configuration files")
	diskdCmd.Flags().StringVarP(&diskdCfg.Security.RootCAPem, "secure-rootca-pem", "", config.Get("security.rootca_pem"), "file name of rootCA.pem")
	diskdCmd.Flags().StringVarP(&diskdCfg.Security.ServerKey, "secure-server-key", "", config.Get("security.server_key"), "file name of server key")
	diskdCmd.Flags().StringVarP(&diskdCfg.Security.ServerCrt, "secure-server-crt", "", config.Get("security.server_crt"), "file name of server crt")
	diskdCmd.Flags().StringVarP(&diskdCfg.Security.AuthToken, "auth-token", "", config.Get("security.auth_token"), "shared bearer token of the streaming endpoints")

	diskdCmd.Flags().StringVarP(&diskdCfg.LogLocation, "log", "l", config.Get("diskd.log_location"), "log location of the diskd will print out")
}
