package naming

import "fmt"

func Network(cluster string) string {
	return cluster
}

// Firewall names the firewall attached to every node of one role.
func Firewall(cluster, role string) string {
	return fmt.Sprintf("%s-%s", cluster, role)
}

func SSHKey(cluster string) string {
	return fmt.Sprintf("%s-ssh", cluster)
}

// Node is the hostname of the ordinal-th node of a role.
func Node(prefix, role string, ordinal int) string {
	return fmt.Sprintf("%s-%s-%d", prefix, role, ordinal)
}

// StorageVolume names the block volume backing a node's storage engine disk.
func StorageVolume(hostname string) string {
	return hostname + "-storage"
}

func BackupContainer(cluster string) string {
	return fmt.Sprintf("%s-storage-backups", cluster)
}

// StateContainer names the bucket holding cluster state such as the join token.
func StateContainer(cluster string) string {
	return fmt.Sprintf("%s-state", cluster)
}

func ClusterToken(cluster string) string {
	return fmt.Sprintf("%s-cluster-token", cluster)
}

// OverlayTag is the tag every overlay device of the cluster carries.
func OverlayTag(cluster string) string {
	return "tag:" + cluster
}

// OverlayRoleTag narrows OverlayTag to one role.
func OverlayRoleTag(cluster, role string) string {
	return fmt.Sprintf("tag:%s-%s", cluster, role)
}
